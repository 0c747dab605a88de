package services

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
)

// EmailService handles transactional email via AWS SES (SESv2 API)
type EmailService struct {
	sesClient *sesv2.Client
	fromEmail string
}

// NewEmailService creates a new email service instance using AWS SDK (role-based)
func NewEmailService(cfg aws.Config) *EmailService {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("SES_AWS_REGION")
		if region == "" {
			if os.Getenv("AWS_DEFAULT_REGION") != "" {
				region = os.Getenv("AWS_DEFAULT_REGION")
			} else {
				region = "eu-west-3"
			}
		}
	}
	cfg.Region = region
	return &EmailService{
		sesClient: sesv2.NewFromConfig(cfg),
		fromEmail: os.Getenv("SES_FROM_EMAIL"),
	}
}

// SendRequestDecision notifies an applicant that their farmer request was
// approved or rejected. Callers treat failures as non-fatal.
func (e *EmailService) SendRequestDecision(ctx context.Context, toEmail, firstName, farmName string, status models.RequestStatus) error {
	var subject string
	if status == models.RequestStatusApproved {
		subject = "Farm To Fork - Votre demande a été approuvée"
	} else {
		subject = "Farm To Fork - Votre demande n'a pas été retenue"
	}

	body := e.generateDecisionHTML(firstName, farmName, status)
	return e.sendEmail(ctx, toEmail, subject, body)
}

// sendEmail sends an email via AWS SESv2 using the instance role
func (e *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.fromEmail),
		Destination:      &sestypes.Destination{ToAddresses: []string{toEmail}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body:    &sestypes.Body{Html: &sestypes.Content{Data: aws.String(htmlBody)}},
			},
		},
	}
	if _, err := e.sesClient.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// generateDecisionHTML creates the HTML email template for a request decision
func (e *EmailService) generateDecisionHTML(firstName, farmName string, status models.RequestStatus) string {
	heading := "Bienvenue parmi nos producteurs !"
	message := fmt.Sprintf(
		"Bonne nouvelle : votre demande pour la ferme <strong>%s</strong> a été approuvée. "+
			"Connectez-vous pour finaliser votre fiche producteur et publier vos produits.",
		farmName)
	if status != models.RequestStatusApproved {
		heading = "Votre demande n'a pas été retenue"
		message = fmt.Sprintf(
			"Après examen, votre demande pour la ferme <strong>%s</strong> n'a pas pu être acceptée. "+
				"Vous pouvez soumettre une nouvelle demande avec des informations mises à jour.",
			farmName)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <title>Farm To Fork</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: white;
            border-radius: 8px;
            padding: 40px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .logo {
            font-size: 28px;
            font-weight: bold;
            color: #2e7d32;
            margin-bottom: 10px;
            text-align: center;
        }
        .footer {
            margin-top: 30px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            color: #666;
            font-size: 14px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">🌱 Farm To Fork</div>

        <h2>%s</h2>
        <p>Bonjour %s,</p>
        <p>%s</p>

        <div class="footer">
            <p><strong>Farm To Fork</strong><br>
            Ceci est un message automatique, merci de ne pas y répondre.</p>
        </div>
    </div>
</body>
</html>`,
		heading,
		firstName,
		message,
	)
}
