package entity

type GeneralConfig struct {
	ShowFakeLoading bool `json:"showFakeLoading"`
}

type WelcomePageConfig struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	WhatToExpect        string `json:"whatToExpect"`
	Claimer             string `json:"claimer"`
	StartQuizButtonText string `json:"startQuizButtonText"`
}

type ResultPageConfig struct {
	ShowPrice            bool   `json:"showPrice"`
	ShowViewAllOptions   bool   `json:"showViewAllOptions"`
	LoadingTitle         string `json:"loadingTitle"`
	LoadingDescription   string `json:"loadingDescription"`
	NoMatchesTitle       string `json:"noMatchesTitle"`
	NoMatchesDescription string `json:"noMatchesDescription"`
	SuccessTitle         string `json:"successTitle"`
	SuccessDescription   string `json:"successDescription"`
	BestMatchLabel       string `json:"bestMatchLabel"`
	RetakeButtonText     string `json:"retakeButtonText"`
	BrowseAllButtonText  string `json:"browseAllButtonText"`
	ShopNowButtonText    string `json:"shopNowButtonText"`
	TakeAgainButtonText  string `json:"takeAgainButtonText"`
}

type QuizConfiguration struct {
	General     GeneralConfig     `json:"general"`
	WelcomePage WelcomePageConfig `json:"welcomePage"`
	ResultPage  ResultPageConfig  `json:"resultPage"`
	Gemini      *GeminiConfig     `json:"gemini,omitempty"`
}

// QuizLocaleConfig is one locale entry of the quiz configuration file.
type QuizLocaleConfig struct {
	Configuration QuizConfiguration `json:"configuration"`
	Questions     []QuizQuestion    `json:"questions"`
	Products      []Product         `json:"products"`
}

// GeminiOrDisabled returns the locale's gemini block, or a disabled one when absent.
func (c *QuizLocaleConfig) GeminiOrDisabled() GeminiConfig {
	if c.Configuration.Gemini == nil {
		return GeminiConfig{}
	}
	return *c.Configuration.Gemini
}
