package provisioning

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/guardlingo/internal/identity"
	"github.com/hitoshi/guardlingo/internal/model"
)

// Request は管理者によるアカウント作成リクエスト。
type Request struct {
	Email               string     `json:"email" validate:"required,max=320,email"`
	Password            string     `json:"password" validate:"required,min=8"`
	FullName            string     `json:"full_name" validate:"required,max=255"`
	UserType            model.Role `json:"user_type" validate:"required"`
	Dialect             string     `json:"dialect" validate:"max=50"`
	EnglishLevel        string     `json:"english_level" validate:"max=20"`
	MosqueID            string     `json:"mosque_id"`
	CompanyID           string     `json:"company_id" validate:"excluded_with=MosqueID"`
	IsAdmin             bool       `json:"is_admin"`
	AssessmentCompleted bool       `json:"assessment_completed"`
	AssessmentScore     *float64   `json:"assessment_score" validate:"omitempty,min=0,max=100"`
	Strengths           []string   `json:"strengths"`
	Recommendations     []string   `json:"recommendations"`

	isSuperAdmin bool
}

// NewBootstrapAdminRequest は最初のスーパー管理者を作成するためのリクエストを生成する。
func NewBootstrapAdminRequest(email, password, fullName string) Request {
	return Request{
		Email:        email,
		Password:     password,
		FullName:     fullName,
		UserType:     model.RoleAdmin,
		IsAdmin:      true,
		isSuperAdmin: true,
	}
}

// maxPasswordBytes はbcryptが受け付けるパスワードの最大バイト数。
const maxPasswordBytes = 72

// requestableRoles はHTTP経由で作成できる利用者種別。
var requestableRoles = map[model.Role]bool{
	model.RoleGuard:        true,
	model.RoleProfessional: true,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// normalize はメールアドレスと文字列IDの前後空白を取り除く。
func (r *Request) normalize() {
	r.Email = identity.NormalizeEmail(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.MosqueID = strings.TrimSpace(r.MosqueID)
	r.CompanyID = strings.TrimSpace(r.CompanyID)
	r.EnglishLevel = strings.TrimSpace(r.EnglishLevel)
}

// Validate は外部呼び出しの前に入力を検証する。
// 最初に見つかった問題を利用者向けのメッセージで返す。
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(describe(verrs[0]))
		}
		return err
	}
	// 文字数ではなくバイト数で制限する
	if len(r.Password) > maxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	}

	if r.isSuperAdmin {
		if !r.IsAdmin {
			return errors.New("is_super_admin requires is_admin")
		}
		return nil
	}
	if !requestableRoles[r.UserType] {
		return errors.New("user_type must be one of: guard, professional")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if field == "password" {
			return fmt.Sprintf("password must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "excluded_with":
		return "mosque_id and company_id cannot both be set"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
