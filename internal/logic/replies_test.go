package logic

import (
	"testing"
)

func TestSelectReply(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		category string
		reply    string
	}{
		{name: "pricing", content: "What is your pricing?", category: "pricing", reply: PricingReply},
		{name: "cost", content: "How much does it COST", category: "pricing", reply: PricingReply},
		{name: "hours", content: "What are your hours?", category: "hours", reply: HoursReply},
		{name: "support", content: "I need support", category: "support", reply: SupportReply},
		{name: "help", content: "can you help me", category: "support", reply: SupportReply},
		{name: "contact", content: "how do I contact you", category: "contact", reply: ContactReply},
		{name: "default", content: "hi", category: "default", reply: DefaultReply},
		{name: "empty", content: "", category: "default", reply: DefaultReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, reply := SelectReply(tt.content)
			if category != tt.category {
				t.Errorf("SelectReply(%q) category = %q, want %q", tt.content, category, tt.category)
			}
			if reply != tt.reply {
				t.Errorf("SelectReply(%q) reply = %q, want %q", tt.content, reply, tt.reply)
			}
		})
	}
}

func TestSelectReply_FirstMatchWins(t *testing.T) {
	// pricing is checked before hours and help
	category, _ := SelectReply("help me with the cost and your hours")
	if category != "pricing" {
		t.Errorf("expected pricing to win, got %q", category)
	}

	category, _ = SelectReply("what are your support hours")
	if category != "hours" {
		t.Errorf("expected hours to win over support, got %q", category)
	}
}

func TestReplyCategories_ReturnsCopy(t *testing.T) {
	categories := ReplyCategories()
	if len(categories) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(categories))
	}
	categories[0].Reply = "changed"

	_, reply := SelectReply("pricing")
	if reply != PricingReply {
		t.Error("mutating the returned slice changed the reply table")
	}
}
