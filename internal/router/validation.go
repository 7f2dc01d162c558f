package router

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/salesdeck/crm-api/internal/model"
)

var activityTypes = map[string]bool{
	model.ActivityTypeCall:        true,
	model.ActivityTypeEmail:       true,
	model.ActivityTypeNote:        true,
	model.ActivityTypeMeeting:     true,
	model.ActivityTypeSystem:      true,
	model.ActivityTypeStageChange: true,
	model.ActivityTypeAlert:       true,
	model.ActivityTypeEmailSent:   true,
	model.ActivityTypeEmailOpened: true,
	model.ActivityTypeLinkClicked: true,
	model.ActivityTypeFollowUp:    true,
}

// registerValidations installs CRM-specific binding rules on gin's
// shared validator.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("activitytype", func(fl validator.FieldLevel) bool {
		return activityTypes[fl.Field().String()]
	})
}
