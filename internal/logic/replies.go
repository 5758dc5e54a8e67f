package logic

// ReplyCategory maps trigger keywords to one canned reply
type ReplyCategory struct {
	Name     string
	Keywords []string
	Reply    string
}

const (
	PricingReply = "Our services start at $99/month for the basic package and go up to $499/month for enterprise. Would you like me to send you a detailed pricing sheet?"
	HoursReply   = "Our business hours are Monday to Friday, 9 AM to 5 PM EST. How can I help you today?"
	SupportReply = "I'd be happy to help you with any questions about our services. Could you please provide more details about what you need assistance with?"
	ContactReply = "You can reach our team at contact@example.com or call us at (555) 123-4567 during business hours. Would you like me to have someone get in touch with you?"
	DefaultReply = "Thank you for contacting us! I'm here to help with any questions about our products and services. How can I assist you today?"
)

// replyCategories is checked in order; the first match wins
var replyCategories = []ReplyCategory{
	{Name: "pricing", Keywords: []string{"pricing", "cost"}, Reply: PricingReply},
	{Name: "hours", Keywords: []string{"hours"}, Reply: HoursReply},
	{Name: "support", Keywords: []string{"support", "help"}, Reply: SupportReply},
	{Name: "contact", Keywords: []string{"contact"}, Reply: ContactReply},
}

// ReplyCategories returns the ordered canned reply categories
func ReplyCategories() []ReplyCategory {
	out := make([]ReplyCategory, len(replyCategories))
	copy(out, replyCategories)
	return out
}

// SelectReply picks the canned reply for a message.
// Returns the category name ("default" when nothing matched) and the reply text.
func SelectReply(content string) (string, string) {
	for _, category := range replyCategories {
		if ContainsAny(content, category.Keywords) {
			return category.Name, category.Reply
		}
	}
	return "default", DefaultReply
}
