package nlu

import (
	"strings"

	"github.com/user/agentdeck/internal/types"
)

// Solution is the static support playbook for one intent.
type Solution struct {
	CommonCauses         []string `json:"commonCauses,omitempty"`
	CommonResponses      []string `json:"commonResponses,omitempty"`
	EvaluationCriteria   []string `json:"evaluationCriteria,omitempty"`
	InformationNeeded    []string `json:"informationNeeded,omitempty"`
	TroubleshootingSteps []string `json:"troubleshootingSteps,omitempty"`
	EscalationTriggers   []string `json:"escalationTriggers,omitempty"`
	FollowUpActions      []string `json:"followUpActions,omitempty"`
}

var solutions = map[string]Solution{
	IntentLogin: {
		CommonCauses: []string{
			"Incorrect password",
			"Account locked after multiple failed attempts",
			"Browser cookies/cache issues",
			"Two-factor authentication problems",
		},
		TroubleshootingSteps: []string{
			`Try resetting your password using the "Forgot Password" link`,
			"Clear your browser cache and cookies",
			"Try logging in from an incognito/private browsing window",
			"Check if your account is locked (wait 15 minutes and try again)",
			"Verify your two-factor authentication device is working",
			"Try a different browser or device",
		},
		EscalationTriggers: []string{"account locked for >24 hours", "SSO integration issues"},
		FollowUpActions:    []string{"password reset email sent", "account unlock scheduled", "MFA reset initiated"},
	},
	IntentBilling: {
		CommonCauses: []string{
			"Subscription tier changes",
			"Proration calculations",
			"Payment method failures",
			"Tax rate changes",
		},
		TroubleshootingSteps: []string{
			"Review your recent subscription changes in account settings",
			"Check if any add-ons were purchased or cancelled",
			"Verify your payment method is up to date",
			"Look for any prorated charges due to plan changes",
			"Check if tax rates changed in your location",
		},
		EscalationTriggers: []string{"disputes over charges", "refund requests >$500"},
		FollowUpActions:    []string{"billing adjustment processed", "refund initiated", "payment method updated"},
	},
	IntentFeature: {
		CommonResponses: []string{
			"Thank you for this valuable feedback",
			"This suggestion aligns with our product roadmap",
			"We'll consider this for future development",
			"This has been added to our feature request backlog",
		},
		EvaluationCriteria: []string{
			"Customer impact and demand",
			"Technical feasibility",
			"Resource requirements",
			"Strategic alignment",
		},
		FollowUpActions: []string{"logged in product backlog", "forwarded to product team", "added to user research list"},
	},
	IntentBug: {
		InformationNeeded: []string{
			"Steps to reproduce the issue",
			"Expected vs actual behavior",
			"Browser and version",
			"Operating system",
			"Any error messages",
		},
		TroubleshootingSteps: []string{
			"Try refreshing the page",
			"Clear browser cache and cookies",
			"Disable browser extensions temporarily",
			"Try a different browser",
			"Check if the issue persists on different devices",
		},
		EscalationTriggers: []string{"affects multiple users", "data loss", "security implications"},
		FollowUpActions:    []string{"bug report created", "assigned to development team", "workaround provided"},
	},
	IntentIntegration: {
		CommonCauses: []string{
			"API key authentication failures",
			"Rate limiting",
			"Data format mismatches",
			"Webhook endpoint issues",
		},
		TroubleshootingSteps: []string{
			"Verify your API credentials are correct and active",
			"Check API rate limits and usage",
			"Validate data formats match our API documentation",
			"Test webhook endpoints are accessible and responding",
			"Review integration logs for specific error messages",
		},
		EscalationTriggers: []string{"enterprise integration failures", "data sync issues"},
		FollowUpActions:    []string{"API credentials reset", "rate limits adjusted", "technical documentation provided"},
	},
	IntentPerformance: {
		CommonCauses: []string{
			"Large datasets",
			"Network connectivity",
			"Browser performance",
			"Server load",
		},
		TroubleshootingSteps: []string{
			"Try reducing the amount of data displayed per page",
			"Check your internet connection speed",
			"Close other browser tabs and applications",
			"Try during off-peak hours",
			"Clear browser cache to improve loading times",
		},
		EscalationTriggers: []string{"system-wide slowdowns", "timeout errors affecting business operations"},
		FollowUpActions:    []string{"performance monitoring enabled", "server optimization scheduled", "caching improvements deployed"},
	},
}

// GetSolution returns the playbook for an intent. Unknown intents, including
// "general", get an empty playbook.
func GetSolution(intent string) Solution {
	return solutions[intent]
}

// ShouldEscalate is true when the message contains any of the intent's
// escalation triggers (case-insensitive) or the ticket is High priority.
func ShouldEscalate(intent, message string, priority types.Priority) bool {
	if priority == types.PriorityHigh {
		return true
	}
	lower := strings.ToLower(message)
	for _, trigger := range solutions[intent].EscalationTriggers {
		if strings.Contains(lower, strings.ToLower(trigger)) {
			return true
		}
	}
	return false
}
