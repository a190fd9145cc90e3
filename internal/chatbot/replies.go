package chatbot

import (
	"fmt"
	"strings"

	"privacyweave/internal/domain"
)

// ListingSource supplies the live job listings for the careers branch.
type ListingSource interface {
	GetActiveJobListings() ([]domain.JobListing, error)
}

// Responder maps lowercased visitor text and the conversation record to a
// canned reply. Every responder except the careers one is pure.
type Responder func(lowerMessage string, conversation domain.ChatConversation) (string, error)

type rule struct {
	keywords []string
	respond  Responder
}

// Engine answers visitor messages with an ordered keyword cascade:
// the first rule whose keyword matches wins, and an explicit fallback
// greeting closes the cascade.
type Engine struct {
	listings ListingSource
	rules    []rule
}

// NewEngine builds the reply cascade over the given listing source.
func NewEngine(listings ListingSource) *Engine {
	e := &Engine{listings: listings}
	e.rules = []rule{
		{
			keywords: []string{"internship", "intern", "student position", "summer job"},
			respond:  staticResponder(internshipReply),
		},
		{
			keywords: []string{"job", "career", "position", "work", "employment", "application"},
			respond:  e.careersResponder,
		},
		{
			keywords: []string{"company", "about", "privacyweave", "who are you"},
			respond:  staticResponder(companyReply),
		},
		{
			keywords: []string{"service", "product", "offering", "solution", "what do you do"},
			respond:  staticResponder(servicesReply),
		},
		{
			keywords: []string{"apply", "submit", "resume", "cv"},
			respond:  staticResponder(applyReply),
		},
	}
	return e
}

// Reply computes the bot response for a visitor message. Matching is a
// case-insensitive substring check, first matching rule wins.
func (e *Engine) Reply(message string, conversation domain.ChatConversation) (string, error) {
	lower := strings.ToLower(message)
	for _, r := range e.rules {
		for _, keyword := range r.keywords {
			if strings.Contains(lower, keyword) {
				return r.respond(lower, conversation)
			}
		}
	}
	return fallbackReply, nil
}

func staticResponder(text string) Responder {
	return func(string, domain.ChatConversation) (string, error) {
		return text, nil
	}
}

// careersResponder enumerates the live listings at reply time.
func (e *Engine) careersResponder(_ string, _ domain.ChatConversation) (string, error) {
	listings, err := e.listings.GetActiveJobListings()
	if err != nil {
		return "", fmt.Errorf("load active listings: %w", err)
	}
	if len(listings) == 0 {
		return noOpeningsReply, nil
	}
	var b strings.Builder
	b.WriteString("We have several open positions at PrivacyWeave:\n\n")
	for i, job := range listings {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, job.Title, job.Location)
	}
	b.WriteString("\nYou can visit our careers page to apply, or I can help you submit an application right now. Would you like to apply for a position?")
	return b.String(), nil
}

const internshipReply = "We offer exciting internship opportunities for students and recent graduates! Our internship program provides hands-on experience in data privacy, AI development, and cybersecurity. Internships typically run for 3-6 months, with both summer and year-round opportunities available.\n\n" +
	"Current internship openings include:\n" +
	"- Privacy Engineering Intern\n" +
	"- Data Science Intern\n" +
	"- Marketing & Communications Intern\n\n" +
	"Would you like to apply for an internship position? I can help you submit your application right away!"

const noOpeningsReply = "We're always looking for talented individuals to join our team! While we may not have specific positions listed right now, we'd be happy to consider your application. Would you like to submit your resume and information?"

const companyReply = "PrivacyWeave is a leading data privacy automation company. We specialize in AI-driven privacy solutions that help organizations protect user data, comply with regulations, and build trust. Our platform leverages advanced machine learning to automate privacy tasks, reduce compliance costs, and provide analytics for better decision-making."

const servicesReply = "PrivacyWeave offers a comprehensive suite of data privacy solutions:\n\n" +
	"1. Privacy Management: Automated data mapping, consent management, and privacy policy generation\n" +
	"2. AI Privacy Framework: Privacy-preserving AI development tools and compliance checks\n" +
	"3. Data Encryption: End-to-end encryption solutions for sensitive data\n" +
	"4. Compliance Automation: Automated GDPR, CCPA, and other regulatory compliance\n" +
	"5. Privacy Analytics: Insights and reporting on privacy practices\n\n" +
	"Would you like more information about any specific service?"

const applyReply = "I'd be happy to help you apply! Please provide the following information:\n\n" +
	"1. Your full name\n" +
	"2. Email address\n" +
	"3. Phone number\n" +
	"4. Position you're interested in\n" +
	"5. Years of experience\n\n" +
	"You can also upload your resume or CV, and I'll make sure it gets to our hiring team."

const fallbackReply = "Thank you for reaching out to PrivacyWeave! I'm here to help with any questions about our company, services, or career opportunities. How can I assist you today?"
