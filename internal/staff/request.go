package staff

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/retreat-admin/backend/internal/models"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	errIdentifierFormat = errors.New("must be an email address or phone number")
)

// CreatePasswordRequest is the body for POST /staff.
type CreatePasswordRequest struct {
	Identifier  string   `json:"identifier"`
	Password    string   `json:"password"`
	DisplayName string   `json:"display_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Validate checks the request fields.
func (req *CreatePasswordRequest) Validate() error {
	req.Identifier = strings.TrimSpace(req.Identifier)
	return validation.ValidateStruct(req,
		validation.Field(&req.Identifier, validation.Required, validation.By(emailOrPhone)),
		validation.Field(&req.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&req.DisplayName, validation.Length(0, 100)),
		validation.Field(&req.Role, validation.Required, validation.By(knownRole)),
		validation.Field(&req.Permissions, validation.By(knownModules)),
	)
}

// CreateGoogleRequest is the body for POST /staff/google.
type CreateGoogleRequest struct {
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Validate checks the request fields.
func (req *CreateGoogleRequest) Validate() error {
	req.Email = strings.TrimSpace(req.Email)
	return validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.DisplayName, validation.Length(0, 100)),
		validation.Field(&req.Role, validation.Required, validation.By(knownRole)),
		validation.Field(&req.Permissions, validation.By(knownModules)),
	)
}

// InviteRequest is the body for POST /staff/invitations.
type InviteRequest struct {
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Validate checks the request fields.
func (req *InviteRequest) Validate() error {
	req.Email = strings.TrimSpace(req.Email)
	return validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Role, validation.Required, validation.By(knownRole)),
		validation.Field(&req.Permissions, validation.By(knownModules)),
	)
}

func emailOrPhone(value interface{}) error {
	s, _ := value.(string)
	if is.Email.Validate(s) == nil || phonePattern.MatchString(strings.ReplaceAll(s, " ", "")) {
		return nil
	}
	return errIdentifierFormat
}

func knownRole(value interface{}) error {
	s, _ := value.(string)
	if _, ok := models.ParseRole(s); !ok {
		return models.ErrUnknownRole
	}
	return nil
}

func knownModules(value interface{}) error {
	perms, _ := value.([]string)
	for _, p := range perms {
		if !models.IsModule(p) {
			return models.ErrUnknownModule
		}
	}
	return nil
}
