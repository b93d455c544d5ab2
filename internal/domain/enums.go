package domain

import "fmt"

// Category is the closed set of topics an article can be filed under.
type Category string

const (
	CategoryLifestyleWellness   Category = "LIFESTYLE_WELLNESS"
	CategoryTechnology          Category = "TECHNOLOGY_INNOVATION"
	CategorySoftwareEngineering Category = "SOFTWARE_ENGINEERING_DEVELOPMENT"
	CategoryBusinessFinance     Category = "BUSINESS_FINANCE"
	CategoryArtsEntertainment   Category = "ARTS_ENTERTAINMENT"
	CategoryNewsSociety         Category = "NEWS_SOCIETY"
	CategoryScienceNature       Category = "SCIENCE_NATURE"
	CategoryPolitics            Category = "POLITICS_GOVERNMENT"
	CategorySportsRecreation    Category = "SPORTS_RECREATION"
	CategoryEducationCareer     Category = "EDUCATION_CAREER"
	CategoryHealthMedicine      Category = "HEALTH_MEDICINE"
)

var categories = []Category{
	CategoryLifestyleWellness,
	CategoryTechnology,
	CategorySoftwareEngineering,
	CategoryBusinessFinance,
	CategoryArtsEntertainment,
	CategoryNewsSociety,
	CategoryScienceNature,
	CategoryPolitics,
	CategorySportsRecreation,
	CategoryEducationCareer,
	CategoryHealthMedicine,
}

// Categories lists every valid category in declaration order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory accepts only exact enum members.
func ParseCategory(value string) (Category, error) {
	for _, c := range categories {
		if string(c) == value {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", value)
}

// Language is the closed set of article languages.
type Language string

const (
	LanguageEN Language = "EN"
	LanguageES Language = "ES"
	LanguagePT Language = "PT"

	DefaultLanguage = LanguageEN
)

var languages = []Language{LanguageEN, LanguageES, LanguagePT}

// Languages lists every valid language in declaration order.
func Languages() []Language {
	return append([]Language(nil), languages...)
}

// ParseLanguage accepts only exact enum members.
func ParseLanguage(value string) (Language, error) {
	for _, l := range languages {
		if string(l) == value {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown language %q", value)
}

// ProcessingStatus enumerates the enrichment lifecycle of an article.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "PENDING"
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
)
