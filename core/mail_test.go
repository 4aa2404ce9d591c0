package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmailTemplates(t *testing.T) {
	require.NoError(t, ParseEmailTemplates(NewTestConfig()))

	for _, name := range []string{"welcome", "course_completed"} {
		entry, ok := templates[name]
		require.True(t, ok, "template %q was not parsed", name)
		assert.Contains(t, entry, ".txt")
		assert.Contains(t, entry, ".gohtml")
	}
	assert.NotContains(t, templates, "_base")
}

func TestEmailMessage_Render(t *testing.T) {
	require.NoError(t, ParseEmailTemplates(NewTestConfig()))

	tests := []struct {
		name     string
		msg      EmailMessage
		wantText []string
		wantHTML []string
	}{
		{
			name: "course completed",
			msg: EmailMessage{
				TemplateName: "course_completed",
				TemplateData: map[string]string{"Name": "Ragnar", "CourseTitle": "Runes"},
			},
			wantText: []string{"Hi Ragnar,", `"Runes"`, "The Norse team", "http://localhost:3000/pages/courses"},
			wantHTML: []string{"Hi Ragnar,", "<b>Runes</b>", "The Norse team"},
		},
		{
			name: "welcome",
			msg: EmailMessage{
				TemplateName: "welcome",
				TemplateData: map[string]string{"Name": "Bjorn", "Email": "bjorn@nku.edu"},
			},
			wantText: []string{"Hi Bjorn,", "bjorn@nku.edu", "The Norse team"},
			wantHTML: []string{"<b>bjorn@nku.edu</b>"},
		},
		{
			name:     "plain body",
			msg:      EmailMessage{BodyStr: "Skål!"},
			wantText: []string{"Skål!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			msg.To = []mail.Address{{Address: "someone@nku.edu"}}
			require.NoError(t, msg.Render())
			assert.True(t, msg.HasContent())
			for _, want := range tt.wantText {
				assert.Contains(t, msg.TextContent, want)
			}
			for _, want := range tt.wantHTML {
				assert.Contains(t, msg.HTMLContent, want)
			}
		})
	}
}
