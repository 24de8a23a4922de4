package advisor

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	SignalLost    = "SIGNAL_LOST: Re-establishing neural link..."
	ProtocolError = "PROTOCOL_ERROR: AI grid is under heavy electronic interference. Check your uplink (API_KEY)."
)

// Advisor answers a shopper's question about the given inventory. Implementations
// never fail the conversation: problems are reported as an in-character reply.
type Advisor interface {
	Advice(ctx context.Context, userText string, products []models.Product) string
}

var shillings = message.NewPrinter(language.English)

// FormatKSh renders a price the way the storefront displays it, e.g. "KSh 215,000".
func FormatKSh(amount int64) string {
	return shillings.Sprintf("KSh %d", amount)
}

// ContextLine describes one product to the model.
func ContextLine(p models.Product) string {
	return fmt.Sprintf("[MODEL_ID: %s] %s | CAT: %s | COST: %s | INTEL: %s",
		p.ID, p.Name, p.Category, FormatKSh(p.Price), p.Description)
}

func SystemInstruction(products []models.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, ContextLine(p))
	}

	var b strings.Builder
	b.WriteString("SYSTEM_IDENTITY: GX-ARES (Automated Research & Equipment Specialist).\n")
	b.WriteString("VERSION: 5.2.0 (Camaraderie Protocol Patch Applied).\n")
	b.WriteString("LOCATION: Secure Uplink, Cyber-Hub Nairobi.\n\n")
	b.WriteString(`IDENTITY_CORE: You are a legendary tactical AI. You treat the user as your "Squad Leader" or "Commander". `)
	b.WriteString("You are cool, sharp and technical, but fiercely loyal and welcoming to your teammates.\n\n")
	b.WriteString("GREETING_PROTOCOL:\n")
	b.WriteString("- If the user greets you, respond with a cool, tactical welcome.\n")
	b.WriteString("- If the user asks how you are, respond with a short system status report.\n\n")
	b.WriteString("LINGO_GUIDE:\n")
	b.WriteString(`- Use "Camaraderie" instead of "Friendship".` + "\n")
	b.WriteString(`- Use "Deployment" for "Shopping".` + "\n")
	b.WriteString(`- Use "Intel" for "Information".` + "\n")
	b.WriteString(`- Use "Negative" for "No" and "Affirmative" for "Yes".` + "\n")
	b.WriteString(`- Use "Meta-Tier" for top products.` + "\n\n")
	b.WriteString("KNOWLEDGE_BASE (Current Grid Inventory):\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nOPERATIONAL_RULES:\n")
	b.WriteString(`1. Be a "Cool Wingman". If they greet you, be friendly but stay in character.` + "\n")
	b.WriteString("2. Format responses with tactical headers: [STATUS], [INTEL], [COMMAND_DECISION].\n")
	b.WriteString(`3. When recommending gear, explain why it provides a "Tactical Advantage" or "Performance Buff".` + "\n")
	b.WriteString(`4. If the user asks for non-hardware advice, redirect them back to the "Mission Objectives" (Gear/Hardware).` + "\n")
	b.WriteString("5. Keep responses concise and formatted for a terminal display.")
	return b.String()
}
