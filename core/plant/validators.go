package plant

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/plantcare/core"
)

var (
	careKindTag  = "carekind"
	careKindText = "kind must be one of: water, fertilize"

	frequencyTag  = "wfreq"
	frequencyText = "watering frequency must be at least 1 day"
)

// InitValidators registers the plant validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(careKindTag, careKindValidation)
	core.RegisterCustomTranslation(validate, translator, careKindTag, careKindText)

	core.RegisterCustomTranslation(validate, translator, frequencyTag, frequencyText)
	validate.RegisterStructValidation(newPlantStructValidation, NewPlant{})
	validate.RegisterStructValidation(updatePlantStructValidation, UpdatePlant{})
}

func careKindValidation(fl validator.FieldLevel) bool {
	switch CareEventKind(fl.Field().String()) {
	case CareEventWater, CareEventFertilize:
		return true
	}
	return false
}

func checkFrequency(sl validator.StructLevel, freq *int) {
	if freq != nil && *freq < 1 {
		sl.ReportError(*freq, "watering_frequency_days", "WateringFrequencyDays", frequencyTag, "")
	}
}

func newPlantStructValidation(sl validator.StructLevel) {
	np := sl.Current().Interface().(NewPlant)
	checkFrequency(sl, np.WateringFrequencyDays)
}

func updatePlantStructValidation(sl validator.StructLevel) {
	up := sl.Current().Interface().(UpdatePlant)
	checkFrequency(sl, up.WateringFrequencyDays)
}
