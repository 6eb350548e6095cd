package agents

import (
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/user/agentdeck/internal/nlu"
	"github.com/user/agentdeck/internal/types"
)

// replyTemplate renders a drafted support reply. Fields come from replyData.
const replyTemplate = `Dear {{.CustomerName}},

{{.Acknowledgment}}

{{if .Investigation}}{{.Investigation}}

{{end}}{{if .Steps}}Here's how we can resolve this:

{{range $i, $s := .Steps}}{{inc $i}}. {{$s}}
{{end}}
{{end}}{{if .Escalate}}🚨 **Priority Escalation**: Due to the urgency of this issue, I'm escalating this to our senior support team. You can expect a response within 2 hours.

{{end}}{{.FollowUp}}

---
Ticket ID: {{.TicketID}}
Classification: {{.Intent}} ({{.ConfidencePct}}% confidence)
Priority: {{.Priority}} | Urgency: {{.Urgency}}
{{if .ErrorCode}}Error Code: {{.ErrorCode}}
{{end}}
Best regards,
CRM Cloud Support Team`

var replyTmpl = template.Must(template.New("reply").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(replyTemplate))

// maxReplySteps caps the troubleshooting steps quoted in a reply.
const maxReplySteps = 4

type replyData struct {
	CustomerName   string
	Acknowledgment string
	Investigation  string
	Steps          []string
	Escalate       bool
	FollowUp       string
	TicketID       types.TicketID
	Intent         string
	ConfidencePct  int
	Priority       types.Priority
	Urgency        nlu.Urgency
	ErrorCode      string
}

var acknowledgments = map[string]string{
	nlu.IntentLogin:       "Thank you for reporting this login issue. I'll help you regain access to your account quickly.",
	nlu.IntentBilling:     "I apologize for the billing confusion. Let me review your account and resolve this billing matter.",
	nlu.IntentBug:         "Thank you for reporting this bug. I'll investigate this issue and work on a solution.",
	nlu.IntentIntegration: "I understand integration issues can be disruptive. Let me help you get this connection working properly.",
	nlu.IntentPerformance: "I see you're experiencing performance issues. Let's work together to improve your experience.",
}

func acknowledgment(intent string, urgency nlu.Urgency) string {
	if intent == nlu.IntentFeature {
		return "Thank you for this valuable feature suggestion. I'll ensure it reaches our product team."
	}
	prefix := ""
	if urgency == nlu.UrgencyHigh {
		prefix = "I understand this is urgent. "
	}
	if ack, ok := acknowledgments[intent]; ok {
		return prefix + ack
	}
	return prefix + "Thank you for contacting us. I'm here to help resolve your issue."
}

func investigation(entities nlu.Entities) string {
	if len(entities) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Based on my analysis:")
	if code, ok := entities.First(nlu.EntityErrorCode); ok {
		fmt.Fprintf(&b, "\n• I found error code \"%s\" which indicates a specific system issue", code)
	}
	if browser, ok := entities.First(nlu.EntityBrowser); ok {
		fmt.Fprintf(&b, "\n• You're using %s, which helps me provide targeted solutions", browser)
	}
	if version, ok := entities.First(nlu.EntityVersion); ok {
		fmt.Fprintf(&b, "\n• Version %s information helps me understand the context", version)
	}
	if _, ok := entities.First(nlu.EntityURL); ok {
		b.WriteString("\n• I've noted the specific URL mentioned for targeted troubleshooting")
	}
	return b.String()
}

var followUpTimeframes = map[nlu.Urgency]string{
	nlu.UrgencyHigh:   "2 hours",
	nlu.UrgencyMedium: "24 hours",
	nlu.UrgencyLow:    "48 hours",
}

func followUp(intent string, urgency nlu.Urgency) string {
	timeframe, ok := followUpTimeframes[urgency]
	if !ok {
		timeframe = "24 hours"
	}
	switch intent {
	case nlu.IntentLogin:
		return fmt.Sprintf("If these steps don't resolve your login issue, I'll escalate to our authentication team. I'll follow up within %s to ensure you can access your account.", timeframe)
	case nlu.IntentBilling:
		return "I'll process any necessary billing adjustments and send you a confirmation email. Please allow 2-3 business days for changes to appear, and contact me if you have any questions."
	case nlu.IntentBug:
		return fmt.Sprintf("I've logged this bug in our tracking system. Our development team will investigate, and I'll keep you updated on the progress. You can expect an update within %s.", timeframe)
	case nlu.IntentFeature:
		return "Your suggestion has been forwarded to our product team and added to our feature request backlog. We review these quarterly and prioritize based on customer feedback and business impact."
	case nlu.IntentIntegration:
		return fmt.Sprintf("If the troubleshooting steps don't resolve the integration, I'll connect you with our technical integration team. I'll follow up within %s to ensure everything is working properly.", timeframe)
	case nlu.IntentPerformance:
		return fmt.Sprintf("If you continue experiencing performance issues after trying these steps, please let me know. I'll monitor your account and follow up within %s to confirm the improvements.", timeframe)
	}
	return fmt.Sprintf("I'll follow up within %s to ensure your issue is fully resolved.", timeframe)
}

func renderReply(ticket *types.Ticket, a *analysis) (string, error) {
	name := ticket.CustomerName
	if name == "" {
		name = "Valued Customer"
	}
	steps := nlu.GetSolution(a.intent).TroubleshootingSteps
	if len(steps) > maxReplySteps {
		steps = steps[:maxReplySteps]
	}
	code, _ := a.entities.First(nlu.EntityErrorCode)

	data := replyData{
		CustomerName:   name,
		Acknowledgment: acknowledgment(a.intent, a.urgency),
		Investigation:  investigation(a.entities),
		Steps:          steps,
		Escalate:       a.escalate,
		FollowUp:       followUp(a.intent, a.urgency),
		TicketID:       ticket.ID,
		Intent:         a.intent,
		ConfidencePct:  int(math.Floor(a.confidence*100 + 0.5)),
		Priority:       ticket.Priority,
		Urgency:        a.urgency,
		ErrorCode:      code,
	}
	var b strings.Builder
	if err := replyTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering reply: %w", err)
	}
	return b.String(), nil
}
