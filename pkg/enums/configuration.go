package enums

import "fmt"

// ConfigType describes how a configuration value should be interpreted.
type ConfigType string

const (
	ConfigTypeString  ConfigType = "string"
	ConfigTypeBoolean ConfigType = "boolean"
	ConfigTypeNumber  ConfigType = "number"
	ConfigTypeJSON    ConfigType = "json"
)

var validConfigTypes = []ConfigType{
	ConfigTypeString,
	ConfigTypeBoolean,
	ConfigTypeNumber,
	ConfigTypeJSON,
}

// IsValid reports whether the value is a known ConfigType.
func (t ConfigType) IsValid() bool {
	for _, candidate := range validConfigTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseConfigType converts raw input into a ConfigType.
func ParseConfigType(value string) (ConfigType, error) {
	for _, candidate := range validConfigTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid configuration type %q", value)
}

// ConfigCategory groups configuration keys for the settings screens.
type ConfigCategory string

const (
	ConfigCategoryGeneral  ConfigCategory = "general"
	ConfigCategoryCompany  ConfigCategory = "company"
	ConfigCategorySystem   ConfigCategory = "system"
	ConfigCategoryFeatures ConfigCategory = "features"
)

var validConfigCategories = []ConfigCategory{
	ConfigCategoryGeneral,
	ConfigCategoryCompany,
	ConfigCategorySystem,
	ConfigCategoryFeatures,
}

// IsValid reports whether the value is a known ConfigCategory.
func (c ConfigCategory) IsValid() bool {
	for _, candidate := range validConfigCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseConfigCategory converts raw input into a ConfigCategory.
func ParseConfigCategory(value string) (ConfigCategory, error) {
	for _, candidate := range validConfigCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid configuration category %q", value)
}
