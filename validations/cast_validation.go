package validations

import (
	"context"

	domainCast "github.com/castline/castline/domains/cast"
	domainUser "github.com/castline/castline/domains/user"
	pkgError "github.com/castline/castline/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func ValidateScheduleCast(ctx context.Context, request domainCast.ScheduleRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Content, validation.Required),
		validation.Field(&request.ScheduledAt, validation.Required),
		validation.Field(&request.Priority, validation.In("", "LOW", "NORMAL", "HIGH")),
		validation.Field(&request.MediaURLs, validation.Each(is.URL)),
		validation.Field(&request.ThreadOrder, validation.Min(0)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateUpdateCast(ctx context.Context, request domainCast.UpdateRequest) error {
	if request.Content != nil {
		if err := validation.Validate(*request.Content, validation.Required); err != nil {
			return pkgError.ValidationError("content: " + err.Error())
		}
	}
	if request.Priority != nil {
		if err := validation.Validate(*request.Priority, validation.In("LOW", "NORMAL", "HIGH")); err != nil {
			return pkgError.ValidationError("priority: " + err.Error())
		}
	}
	if request.MediaURLs != nil {
		if err := validation.Validate(*request.MediaURLs, validation.Each(is.URL)); err != nil {
			return pkgError.ValidationError("media_urls: " + err.Error())
		}
	}

	return nil
}

func ValidateRegisterUser(ctx context.Context, request domainUser.RegisterRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.FID, validation.Required, validation.Min(1)),
		validation.Field(&request.SignerUUID, validation.Required, is.UUIDv4),
		validation.Field(&request.PfpURL, is.URL),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
