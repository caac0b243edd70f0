package donation

import (
	"strings"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	"github.com/frahmantamala/pix-donation/internal/core/common/validation"
)

// CreateDonationDTO is the public request body. There is deliberately no
// status field: status only moves through verified webhooks.
type CreateDonationDTO struct {
	CampaignID    string      `json:"campaignId"`
	DonorName     string      `json:"donorName"`
	DonorEmail    string      `json:"donorEmail"`
	DonorDocument *string     `json:"donorDocument,omitempty"`
	DonorPhone    *string     `json:"donorPhone,omitempty"`
	Amount        money.Cents `json:"amount"`
	IsAnonymous   bool        `json:"isAnonymous"`
}

func (dto *CreateDonationDTO) Normalize() {
	dto.CampaignID = strings.TrimSpace(dto.CampaignID)
	dto.DonorName = strings.TrimSpace(dto.DonorName)
	dto.DonorEmail = strings.TrimSpace(dto.DonorEmail)
	dto.DonorDocument = trimOptional(dto.DonorDocument)
	dto.DonorPhone = trimOptional(dto.DonorPhone)
}

func (dto *CreateDonationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("campaignId", dto.CampaignID).Required()
	v.Field("amount", dto.Amount).Required().Positive(errors.ErrCodeInvalidAmount)
	v.Field("donorName", dto.DonorName).Required().MaxLength(255)
	v.Field("donorEmail", dto.DonorEmail).Required().MaxLength(255).Email()
	v.Field("donorDocument", dto.DonorDocument).Custom(maxOptionalLength("donorDocument", 32))
	v.Field("donorPhone", dto.DonorPhone).Custom(maxOptionalLength("donorPhone", 32))

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func maxOptionalLength(field string, max int) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		s, ok := value.(*string)
		if !ok || s == nil || len(*s) <= max {
			return nil
		}
		return errors.NewValidationFieldError(field, field+" is too long", errors.ErrCodeValidationFailed)
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
