package app

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ValidError one failed field
type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// ErrorsToString 错误信息拼接为字符串
func (v ValidErrors) ErrorsToString() string {
	return v.Error()
}

// MapsToString field -> message
func (v ValidErrors) MapsToString() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Key] = err.Message
	}
	return out
}

// BindAndValid binds the request (json body, form or query) into v and runs the binding rules.
// BindAndValid 绑定并校验请求参数
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors
	err := c.ShouldBind(v)
	if errors.Is(err, io.EOF) {
		// empty json body: validate the zero value
		err = binding.Validator.ValidateStruct(v)
	}
	if err == nil {
		return true, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
		return false, errs
	}
	for _, e := range verrs {
		errs = append(errs, &ValidError{
			Key:     e.Field(),
			Message: e.Field() + ": failed on '" + e.Tag() + "'",
		})
	}
	return false, errs
}
