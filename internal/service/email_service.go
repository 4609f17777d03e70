package service

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"lumiere/internal/content"
	"lumiere/internal/models"
	"lumiere/internal/validation"
)

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES: region=%s, from=%s", awsRegion, fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendStreakReminder nudges the learner to keep today's streak alive
func (s *EmailService) SendStreakReminder(ctx context.Context, toEmail string, stats models.UserStats, daily content.Daily) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): streak reminder to %s", toEmail)
		return nil
	}
	if err := validation.ValidateEmail(toEmail); err != nil {
		return fmt.Errorf("invalid reminder recipient: %w", err)
	}

	subject := fmt.Sprintf("🔥 连续学习 %d 天，今天也别断哦！", stats.Streak)
	lessonLink := fmt.Sprintf("%s/?topic=%s", s.appBaseURL, daily.Topic.ID)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #002395; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.quote { font-style: italic; font-size: 18px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #ED2939; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Bonjour, Étudiant</h1>
		</div>
		<div class="content">
			<p>你已经连续学习 <strong>%d</strong> 天，共掌握 <strong>%d</strong> 个单词。</p>
			<p class="quote">"%s"</p>
			<p>%s</p>
			<p>今日挑战：%s %s</p>
			<p style="text-align: center;">
				<a href="%s" class="button">开始学习</a>
			</p>
		</div>
		<div class="footer">
			<p>This is an automated email from Lumière. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, stats.Streak, stats.WordsLearned,
		html.EscapeString(daily.Quote.French), html.EscapeString(daily.Quote.Chinese),
		daily.Topic.Emoji, html.EscapeString(daily.Topic.Title), lessonLink)

	textBody := fmt.Sprintf(`你已经连续学习 %d 天，共掌握 %d 个单词。

"%s"
%s

今日挑战：%s
开始学习：%s

---
This is an automated email from Lumière. Please do not reply.
`, stats.Streak, stats.WordsLearned, daily.Quote.French, daily.Quote.Chinese, daily.Topic.Title, lessonLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s, to=%s, subject=%s", fromAddress, toEmail, subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
