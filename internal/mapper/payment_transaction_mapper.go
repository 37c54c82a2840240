package mapper

import (
	"encoding/json"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/model"

	"gorm.io/datatypes"
)

type PaymentTransactionMapper struct{}

func NewPaymentTransactionMapper() *PaymentTransactionMapper {
	return &PaymentTransactionMapper{}
}

func (m *PaymentTransactionMapper) ToEntity(t *model.PaymentTransaction) *entity.PaymentTransaction {
	if t == nil {
		return nil
	}
	metadata := map[string]string{}
	if len(t.Metadata) > 0 {
		// Malformed metadata is not fatal for reads; the row is still usable.
		_ = json.Unmarshal(t.Metadata, &metadata)
	}
	return &entity.PaymentTransaction{
		Id:              t.Id,
		UserId:          t.UserId,
		Provider:        t.Provider,
		SessionId:       t.SessionId,
		Status:          entity.PaymentStatus(t.Status),
		SessionStatus:   t.SessionStatus,
		PaymentStatus:   t.PaymentStatus,
		PaymentIntentId: t.PaymentIntentId,
		Amount:          t.Amount,
		Currency:        t.Currency,
		Metadata:        metadata,
		CheckoutURL:     t.CheckoutURL,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CompletedAt:     t.CompletedAt,
	}
}

func (m *PaymentTransactionMapper) ToModel(t *entity.PaymentTransaction) *model.PaymentTransaction {
	if t == nil {
		return nil
	}
	var metadata datatypes.JSON
	if len(t.Metadata) > 0 {
		if raw, err := json.Marshal(t.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}
	return &model.PaymentTransaction{
		Id:              t.Id,
		UserId:          t.UserId,
		Provider:        t.Provider,
		SessionId:       t.SessionId,
		Status:          string(t.Status),
		SessionStatus:   t.SessionStatus,
		PaymentStatus:   t.PaymentStatus,
		PaymentIntentId: t.PaymentIntentId,
		Amount:          t.Amount,
		Currency:        t.Currency,
		Metadata:        metadata,
		CheckoutURL:     t.CheckoutURL,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CompletedAt:     t.CompletedAt,
	}
}

func (m *PaymentTransactionMapper) ToEntities(txs []*model.PaymentTransaction) []*entity.PaymentTransaction {
	entities := make([]*entity.PaymentTransaction, len(txs))
	for i, t := range txs {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
