package configurations

import (
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

const (
	KeyCompanyName    = "company_name"
	KeyCompanyLogo    = "company_logo"
	KeyCompanyTaxID   = "company_tax_id"
	KeyCompanyAddress = "company_address"
	KeyCompanyPhone   = "company_phone"
	KeyCompanyEmail   = "company_email"
	KeyCompanySite    = "company_site"
	KeyAllowQuotes    = "allow_quotes"
	KeyAllowOrders    = "allow_orders"
	KeyShowPrices     = "show_prices"

	// DefaultCompanyName is used on printed documents until an admin sets one.
	DefaultCompanyName = "Minha Empresa"
)

// Defaults mirrors the rows seeded by the configurations migration. SQLite
// databases are built without goose, so the API seeds them on boot.
func Defaults() []models.Configuration {
	row := func(key, value string, typ enums.ConfigType, category enums.ConfigCategory, description string) models.Configuration {
		return models.Configuration{Key: key, Value: value, Type: typ, Category: category, Description: &description}
	}
	return []models.Configuration{
		row(KeyCompanyName, DefaultCompanyName, enums.ConfigTypeString, enums.ConfigCategoryCompany, "Company name shown on printed documents"),
		row(KeyCompanyTaxID, "", enums.ConfigTypeString, enums.ConfigCategoryCompany, "Company CNPJ"),
		row(KeyCompanyAddress, "", enums.ConfigTypeString, enums.ConfigCategoryCompany, "Company address"),
		row(KeyCompanyPhone, "", enums.ConfigTypeString, enums.ConfigCategoryCompany, "Company phone"),
		row(KeyCompanyEmail, "", enums.ConfigTypeString, enums.ConfigCategoryCompany, "Company email"),
		row(KeyCompanySite, "", enums.ConfigTypeString, enums.ConfigCategoryCompany, "Company website"),
		row(KeyAllowQuotes, "true", enums.ConfigTypeBoolean, enums.ConfigCategoryFeatures, "Allow creating quotes"),
		row(KeyAllowOrders, "true", enums.ConfigTypeBoolean, enums.ConfigCategoryFeatures, "Allow creating orders"),
		row(KeyShowPrices, "true", enums.ConfigTypeBoolean, enums.ConfigCategoryFeatures, "Show prices on printed documents"),
	}
}
