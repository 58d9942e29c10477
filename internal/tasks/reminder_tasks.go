package tasks

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"condopix_app/internal/models"
	"condopix_app/internal/services"

	"gorm.io/gorm"
)

// SendChargeReminderArgs defines the arguments for a charge reminder task
type SendChargeReminderArgs struct {
	Template string `json:"template"`
	MonthRef string `json:"month_ref"`
}

const defaultReminderTemplate = "Olá $name! 😊\n\n" +
	"Passando para lembrar que a taxa do condomínio referente a $month ainda está em aberto.\n\n" +
	"Envie uma mensagem por aqui para gerar seu PIX de pagamento.\n\n" +
	"Obrigado!"

// SendChargeReminderTaskDef encapsulates the monthly charge reminder broadcast.
// It finds every registered resident without an approved payment for the
// reference month and messages them on WhatsApp.
type SendChargeReminderTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendChargeReminderTaskDef) TaskID() string {
	return "send_charge_reminder"
}

// CreateTask builds a recurring ScheduledTask record for this task
func (t *SendChargeReminderTaskDef) CreateTask(args SendChargeReminderArgs, due time.Time, recurringInterval *string) (*models.ScheduledTask, error) {
	taskType := models.ScheduledTaskTypeOneTime
	if recurringInterval != nil && *recurringInterval != "" {
		taskType = models.ScheduledTaskTypeRecurring
	}
	return BuildScheduledTask(t.TaskID(), args, due, recurringInterval, taskType, 3)
}

// HandleExecution sends the reminder to every client still owing for the month
func (t *SendChargeReminderTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	template, _ := task.Arguments["template"].(string)
	if template == "" {
		template = defaultReminderTemplate
	}

	monthRef, _ := task.Arguments["month_ref"].(string)
	if monthRef == "" {
		monthRef = time.Now().UTC().Format("2006-01")
	}

	paidSubquery := db.Model(&models.Payment{}).
		Select("client_id").
		Where("month_ref = ? AND status = ?", monthRef, models.PaymentStatusApproved)

	var clients []models.Client
	if err := db.WithContext(ctx).
		Where("id NOT IN (?)", paidSubquery).
		Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to query unpaid clients: %w", err)
	}

	whatsapp := services.NewWhatsAppService()

	successCount := 0
	failureCount := 0
	var failures []string

	for _, client := range clients {
		msg := replaceReminderPlaceholders(template, client, monthRef)
		if err := whatsapp.SendTextMessage(ctx, client.Phone, msg); err != nil {
			log.Printf("Failed to send reminder to %s: %v", client.Phone, err)
			failureCount++
			failures = append(failures, fmt.Sprintf("%s: %v", client.Phone, err))
			continue
		}
		successCount++
	}

	result := map[string]interface{}{
		"month_ref": monthRef,
		"total":     len(clients),
		"success":   successCount,
		"failure":   failureCount,
	}

	if failureCount > 0 {
		result["errors"] = failures
		return result, fmt.Errorf("failed to deliver reminder to %d of %d clients", failureCount, len(clients))
	}

	return result, nil
}

// SendChargeReminderTask is the singleton instance of SendChargeReminderTaskDef
var SendChargeReminderTask = &SendChargeReminderTaskDef{}

func replaceReminderPlaceholders(template string, client models.Client, monthRef string) string {
	res := strings.ReplaceAll(template, "$name", client.Name)
	res = strings.ReplaceAll(res, "$month", monthRef)
	res = strings.ReplaceAll(res, "$condo", client.Condo)
	res = strings.ReplaceAll(res, "$block", client.Block)
	res = strings.ReplaceAll(res, "$apartment", client.Apartment)
	return res
}
