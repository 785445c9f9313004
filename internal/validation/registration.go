package validation

import (
	"errors"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Messages shared with the service layer and tests.
const (
	MsgPasswordMismatch = "password confirmation does not match"
	MsgEmailTaken       = "email address is already taken"
)

// Registration is the sign-up form.
type Registration struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
	Password1 string `json:"password1" form:"password1"`
	Password2 string `json:"password2" form:"password2"`
}

// Normalize trims the name fields and the email. Passwords are left as typed.
func (r *Registration) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
}

// Validate runs the schema and cross-field rules. Uniqueness is checked by
// the caller because it needs the store.
func (r Registration) Validate() error {
	err := ozzo.ValidateStruct(&r,
		ozzo.Field(&r.FirstName, ozzo.Required, ozzo.Length(1, 150)),
		ozzo.Field(&r.LastName, ozzo.Required, ozzo.Length(1, 150)),
		ozzo.Field(&r.Email, ozzo.Required, ozzo.Length(3, 254), is.Email),
		ozzo.Field(&r.Password1, ozzo.Required),
		ozzo.Field(&r.Password2, ozzo.By(ConfirmationOf(r.Password1))),
	)
	return FromOzzo(ScopeForm, err)
}

// Login is the sign-in form.
type Login struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (l Login) Validate() error {
	err := ozzo.ValidateStruct(&l,
		ozzo.Field(&l.Email, ozzo.Required),
		ozzo.Field(&l.Password, ozzo.Required),
	)
	return FromOzzo(ScopeForm, err)
}

// ConfirmationOf requires the value to be non-empty and byte-equal to
// original.
func ConfirmationOf(original string) ozzo.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" || s != original {
			return errors.New(MsgPasswordMismatch)
		}
		return nil
	}
}

// FromOzzo converts ozzo-validation's per-field map into an ordered Errors
// list. Errors that are not field errors are returned unchanged.
func FromOzzo(scope string, err error) error {
	if err == nil {
		return nil
	}
	var fields ozzo.Errors
	if !errors.As(err, &fields) {
		return err
	}
	out := make(Errors, 0, len(fields))
	for name, ferr := range fields {
		if ferr == nil {
			continue
		}
		out.Add(scope, name, ferr.Error())
	}
	sortByField(out)
	return out.Err()
}
