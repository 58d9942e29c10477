package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"condopix_app/internal/models"
)

// Conversation steps, in dialogue order
const (
	StepStart            = "START"
	StepCollectName      = "COLLECT_NAME"
	StepCollectCondo     = "COLLECT_CONDO"
	StepCollectBlock     = "COLLECT_BLOCK"
	StepCollectApartment = "COLLECT_APARTMENT"
	StepSelectPlan       = "SELECT_PLAN"
	StepCompleted        = "COMPLETED"
)

// Messenger is the outbound side of the chat channel
type Messenger interface {
	SendTextMessage(ctx context.Context, to, text string) error
	MarkMessageAsRead(ctx context.Context, messageID string) error
}

// ChargeRequest is the "ready to charge" event emitted when a
// conversation reaches COMPLETED. It is the sole trigger for PIX
// generation.
type ChargeRequest struct {
	Phone     string
	Name      string
	Condo     string
	Block     string
	Apartment string
	PlanCode  string
	Amount    decimal.Decimal
	MonthRef  string // current month when empty
}

// TransitionResult is the outcome of applying one inbound message to a
// session: the updated session snapshot, the outbound prompt (empty for
// the terminal transition) and, on completion, the charge event.
type TransitionResult struct {
	Session ConversationSession
	Reply   string
	Action  string
	Charge  *ChargeRequest
}

const welcomeMessage = "Olá! Bem-vindo ao sistema de pagamentos PIX via WhatsApp.\n\n" +
	"Vou coletar algumas informações para gerar seu PIX de pagamento mensal.\n\n" +
	"Para começar, qual é o seu nome completo?"

// AdvanceConversation applies one inbound message to a session and
// returns the transition outcome. It is a pure function: the caller owns
// persisting the returned session and delivering the reply.
func AdvanceConversation(session ConversationSession, text string) TransitionResult {
	text = strings.TrimSpace(text)

	switch session.Step {
	case StepCollectName:
		if len([]rune(text)) < 3 {
			return TransitionResult{
				Session: session,
				Reply:   "Por favor, digite seu nome completo (mínimo 3 caracteres).",
				Action:  "retry_name",
			}
		}
		session.Name = text
		session.Step = StepCollectCondo
		return TransitionResult{
			Session: session,
			Reply:   fmt.Sprintf("Obrigado, %s!\n\nAgora, qual é o nome do seu condomínio?", text),
			Action:  "collect_condo",
		}

	case StepCollectCondo:
		if text == "" {
			return TransitionResult{
				Session: session,
				Reply:   "Qual é o nome do seu condomínio?",
				Action:  "retry_condo",
			}
		}
		session.Condo = text
		session.Step = StepCollectBlock
		return TransitionResult{
			Session: session,
			Reply:   "Qual é o bloco/torre do seu apartamento?",
			Action:  "collect_block",
		}

	case StepCollectBlock:
		if text == "" {
			return TransitionResult{
				Session: session,
				Reply:   "Qual é o bloco/torre do seu apartamento?",
				Action:  "retry_block",
			}
		}
		session.Block = text
		session.Step = StepCollectApartment
		return TransitionResult{
			Session: session,
			Reply:   "Qual é o número do seu apartamento?",
			Action:  "collect_apartment",
		}

	case StepCollectApartment:
		if text == "" {
			return TransitionResult{
				Session: session,
				Reply:   "Qual é o número do seu apartamento?",
				Action:  "retry_apartment",
			}
		}
		session.Apartment = text
		session.Step = StepSelectPlan
		return TransitionResult{
			Session: session,
			Reply: "Perfeito! Agora selecione o plano desejado:\n\n" +
				models.PlanMenu() + "\n\n" +
				"Digite o número do plano (1, 2 ou 3):",
			Action: "select_plan",
		}

	case StepSelectPlan:
		plan, ok := models.LookupPlan(text)
		if !ok {
			return TransitionResult{
				Session: session,
				Reply:   "Opção inválida. Por favor, digite 1, 2 ou 3 para selecionar o plano.",
				Action:  "retry_plan",
			}
		}
		session.PlanCode = plan.Code
		session.Amount = plan.Price
		session.Step = StepCompleted
		return TransitionResult{
			Session: session,
			Action:  "generate_pix",
			Charge: &ChargeRequest{
				Phone:     session.Phone,
				Name:      session.Name,
				Condo:     session.Condo,
				Block:     session.Block,
				Apartment: session.Apartment,
				PlanCode:  plan.Code,
				Amount:    plan.Price,
			},
		}

	default:
		// START (and anything the reset logic funnels here): message
		// content is ignored, the welcome prompt begins the cycle
		session.Step = StepCollectName
		return TransitionResult{
			Session: session,
			Reply:   welcomeMessage,
			Action:  "collect_name",
		}
	}
}

func knownStep(step string) bool {
	switch step {
	case StepStart, StepCollectName, StepCollectCondo, StepCollectBlock,
		StepCollectApartment, StepSelectPlan, StepCompleted:
		return true
	}
	return false
}

// ConversationService drives the dialogue for inbound chat messages
type ConversationService struct {
	store     SessionStore
	messenger Messenger
}

func NewConversationService(store SessionStore, messenger Messenger) *ConversationService {
	return &ConversationService{store: store, messenger: messenger}
}

// HandleMessage runs one conversation turn: mark the message read
// (best-effort), load or lazily create the session, apply the transition,
// persist the new state and deliver the prompt. A session sitting on
// COMPLETED or on an unrecognized step is reset to START first.
func (s *ConversationService) HandleMessage(ctx context.Context, phone, text, messageID string) (*TransitionResult, error) {
	if err := s.messenger.MarkMessageAsRead(ctx, messageID); err != nil {
		log.Printf("Failed to mark message %s as read: %v", messageID, err)
	}

	session, err := s.store.Get(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", phone, err)
	}
	if session == nil {
		session = &ConversationSession{Phone: phone, Step: StepStart}
	}

	if session.Step == StepCompleted || !knownStep(session.Step) {
		if err := s.store.Reset(ctx, phone); err != nil {
			log.Printf("Failed to reset session for %s: %v", phone, err)
		}
		session = &ConversationSession{Phone: phone, Step: StepStart}
	}

	result := AdvanceConversation(*session, text)

	if err := s.store.Save(ctx, &result.Session); err != nil {
		return nil, fmt.Errorf("failed to save session for %s: %w", phone, err)
	}

	if result.Reply != "" {
		if err := s.messenger.SendTextMessage(ctx, phone, result.Reply); err != nil {
			return nil, fmt.Errorf("failed to send reply to %s: %w", phone, err)
		}
	}

	return &result, nil
}
