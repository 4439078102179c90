// Package i18n holds the user-visible strings in every supported language.
package i18n

import "fmt"

// Language is a supported UI language.
type Language string

const (
	English Language = "en"
	Kannada Language = "kn"
)

// Default is used when no preference is stored.
const Default = English

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case English, Kannada:
		return Language(s), nil
	default:
		return "", fmt.Errorf("unsupported language %q (want en or kn)", s)
	}
}

// Key names a translated string.
type Key string

const (
	WelcomeTitle       Key = "welcomeTitle"
	WelcomeSubtitle    Key = "welcomeSubtitle"
	KnowledgeSupport   Key = "knowledgeSupport"
	IdeaCreation       Key = "ideaCreation"
	BusinessAssistance Key = "businessAssistance"
	HeaderSubtitle     Key = "headerSubtitle"
	InitialBotMessage  Key = "initialBotMessage"
	Listening          Key = "listening"
	StoppedListening   Key = "stoppedListening"
	ChatHomeTitle      Key = "chatHomeTitle"
	ExploreHubs        Key = "exploreHubs"
	VoiceError         Key = "voiceError"
	MicrophoneError    Key = "microphoneError"
	TextError          Key = "textError"
	ImageGenError      Key = "imageGenError"
	EditError          Key = "editError"
	GeneratingMessage  Key = "generatingMessage"
	ImageSaved         Key = "imageSaved"
)

var tables = map[Language]map[Key]string{
	English: {
		WelcomeTitle:       "NIRMANA",
		WelcomeSubtitle:    "Your AI assistant for exploring Karnataka's industrial landscape.",
		KnowledgeSupport:   "Knowledge Support: answers questions, explains concepts, and provides up-to-date information.",
		IdeaCreation:       "Idea Creation: helps you brainstorm, write, design, or plan projects.",
		BusinessAssistance: "Business Assistance: generates reports, summaries, and market insights.",
		HeaderSubtitle:     "Karnataka Industry Hub",
		InitialBotMessage:  "Hello! I'm Nirmana. I'm an expert on Karnataka's industrial hubs, but I can also help you brainstorm ideas or generate business insights. How can I assist you today?",
		Listening:          "Listening...",
		StoppedListening:   "Stopped listening.",
		ChatHomeTitle:      "How can I help today?",
		ExploreHubs:        "Explore Industrial Hubs",
		VoiceError:         "Sorry, a voice connection error occurred.",
		MicrophoneError:    "Could not access the microphone. Please check permissions.",
		TextError:          "Sorry, I encountered an error. Please try again.",
		ImageGenError:      "Sorry, I couldn't generate the image. Please try again or with a different prompt.",
		EditError:          "Sorry, I couldn't edit the image. Please try again.",
		GeneratingMessage:  "Generating your masterpiece...",
		ImageSaved:         "Image saved to",
	},
	Kannada: {
		WelcomeTitle:       "ನಿರ್ಮಾಣ",
		WelcomeSubtitle:    "ಕರ್ನಾಟಕದ ಕೈಗಾರಿಕಾ ಭೂದೃಶ್ಯವನ್ನು ಅನ್ವೇಷಿಸಲು ನಿಮ್ಮ AI ಸಹಾಯಕ.",
		KnowledgeSupport:   "ಜ್ಞಾನ ಬೆಂಬಲ: ಪ್ರಶ್ನೆಗಳಿಗೆ ಉತ್ತರಿಸುತ್ತದೆ, ಪರಿಕಲ್ಪನೆಗಳನ್ನು ವಿವರಿಸುತ್ತದೆ ಮತ್ತು ನವೀಕೃತ ಮಾಹಿತಿಯನ್ನು ಒದಗಿಸುತ್ತದೆ.",
		IdeaCreation:       "ಐಡಿಯಾ ರಚನೆ: ಯೋಜನೆಗಳನ್ನು ರೂಪಿಸಲು, ಬರೆಯಲು, ವಿನ್ಯಾಸಗೊಳಿಸಲು ಅಥವಾ ಯೋಜಿಸಲು ಸಹಾಯ ಮಾಡುತ್ತದೆ.",
		BusinessAssistance: "ವ್ಯಾಪಾರ ಸಹಾಯ: ವರದಿಗಳು, ಸಾರಾಂಶಗಳು ಮತ್ತು ಮಾರುಕಟ್ಟೆ ಒಳನೋಟಗಳನ್ನು ರಚಿಸುತ್ತದೆ.",
		HeaderSubtitle:     "ಕರ್ನಾಟಕ ಇಂಡಸ್ಟ್ರಿ ಹಬ್",
		InitialBotMessage:  "ನಮಸ್ಕಾರ! ನಾನು ನಿರ್ಮಾಣ. ನಾನು ಕರ್ನಾಟಕದ ಕೈಗಾರಿಕಾ ಕೇಂದ್ರಗಳ ಕುರಿತು ಪರಿಣಿತ, ಆದರೆ ನಾನು ನಿಮಗೆ ಹೊಸ ಆಲೋಚನೆಗಳನ್ನು ರೂಪಿಸಲು ಅಥವಾ ವ್ಯಾಪಾರ ಒಳನೋಟಗಳನ್ನು ರಚಿಸಲು ಸಹ ಸಹಾಯ ಮಾಡಬಲ್ಲೆ. ಇಂದು ನಾನು ನಿಮಗೆ ಹೇಗೆ ಸಹಾಯ ಮಾಡಲಿ?",
		Listening:          "ಕೇಳುತ್ತಿದೆ...",
		StoppedListening:   "ಕೇಳುವುದನ್ನು ನಿಲ್ಲಿಸಲಾಗಿದೆ.",
		ChatHomeTitle:      "ಇಂದು ನಾನು ಹೇಗೆ ಸಹಾಯ ಮಾಡಲಿ?",
		ExploreHubs:        "ಕೈಗಾರಿಕಾ ಕೇಂದ್ರಗಳನ್ನು ಅನ್ವೇಷಿಸಿ",
		VoiceError:         "ಕ್ಷಮಿಸಿ, ಧ್ವನಿ ಸಂಪರ್ಕದಲ್ಲಿ ದೋಷ ಸಂಭವಿಸಿದೆ.",
		MicrophoneError:    "ಮೈಕ್ರೊಫೋನ್ ಪ್ರವೇಶಿಸಲು ಸಾಧ್ಯವಾಗಲಿಲ್ಲ. ದಯವಿಟ್ಟು ಅನುಮತಿಗಳನ್ನು ಪರಿಶೀಲಿಸಿ.",
		TextError:          "ಕ್ಷಮಿಸಿ, ದೋಷ ಸಂಭವಿಸಿದೆ. ದಯವಿಟ್ಟು ಮತ್ತೆ ಪ್ರಯತ್ನಿಸಿ.",
		ImageGenError:      "ಕ್ಷಮಿಸಿ, ಚಿತ್ರವನ್ನು ರಚಿಸಲು ಸಾಧ್ಯವಾಗಲಿಲ್ಲ. ದಯವಿಟ್ಟು ಮತ್ತೆ ಪ್ರಯತ್ನಿಸಿ ಅಥವಾ ಬೇರೆ ಪ್ರಾಂಪ್ಟ್‌ನೊಂದಿಗೆ ಪ್ರಯತ್ನಿಸಿ.",
		EditError:          "ಕ್ಷಮಿಸಿ, ಚಿತ್ರವನ್ನು ಸಂಪಾದಿಸಲು ಸಾಧ್ಯವಾಗಲಿಲ್ಲ. ದಯವಿಟ್ಟು ಮತ್ತೆ ಪ್ರಯತ್ನಿಸಿ.",
		GeneratingMessage:  "ನಿಮ್ಮ ಕಲಾಕೃತಿಯನ್ನು ರಚಿಸಲಾಗುತ್ತಿದೆ...",
		ImageSaved:         "ಚಿತ್ರವನ್ನು ಉಳಿಸಲಾಗಿದೆ",
	},
}

// T returns the string for key in lang, falling back to English.
func T(lang Language, key Key) string {
	if s, ok := tables[lang][key]; ok {
		return s
	}
	if s, ok := tables[English][key]; ok {
		return s
	}
	return string(key)
}

// Suggestion is a canned prompt offered on the chat home screen.
type Suggestion struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

var suggestions = map[Language][]Suggestion{
	English: {
		{"Bengaluru", "Tell me about Bengaluru's industrial hub."},
		{"Mysuru", "What are the main industries in Mysuru?"},
		{"Mangaluru", "Describe the industrial landscape of Mangaluru."},
		{"Hubballi-Dharwad", "Tell me about the Hubballi-Dharwad hub."},
		{"Belagavi", "What is Belagavi known for industrially?"},
		{"Ballari", "Describe Ballari's steel and mining sector."},
		{"Tumakuru", "What are the key industries in Tumakuru?"},
		{"Hassan", "Tell me about industries in Hassan."},
		{"Shivamogga", "What is the industrial focus of Shivamogga?"},
	},
	Kannada: {
		{"ಬೆಂಗಳೂರು", "ಬೆಂಗಳೂರಿನ ಕೈಗಾರಿಕಾ ಕೇಂದ್ರದ ಬಗ್ಗೆ ಹೇಳಿ."},
		{"ಮೈಸೂರು", "ಮೈಸೂರಿನ ಪ್ರಮುಖ ಕೈಗಾರಿಕೆಗಳು ಯಾವುವು?"},
		{"ಮಂಗಳೂರು", "ಮಂಗಳೂರಿನ ಕೈಗಾರಿಕಾ ಭೂದೃಶ್ಯವನ್ನು ವಿವರಿಸಿ."},
		{"ಹುಬ್ಬಳ್ಳಿ-ಧಾರವಾಡ", "ಹುಬ್ಬಳ್ಳಿ-ಧಾರವಾಡ ಕೇಂದ್ರದ ಬಗ್ಗೆ ಹೇಳಿ."},
		{"ಬೆಳಗಾವಿ", "ಬೆಳಗಾವಿ ಕೈಗಾರಿಕಾವಾಗಿ ಯಾವುದಕ್ಕೆ ಹೆಸರುವಾಸಿ?"},
		{"ಬಳ್ಳಾರಿ", "ಬಳ್ಳಾರಿಯ ಉಕ್ಕು ಮತ್ತು ಗಣಿಗಾರಿಕೆ ವಲಯವನ್ನು ವಿವರಿಸಿ."},
		{"ತುಮಕೂರು", "ತುಮಕೂರಿನ ಪ್ರಮುಖ ಕೈಗಾರಿಕೆಗಳು ಯಾವುವು?"},
		{"ಹಾಸನ", "ಹಾಸನದಲ್ಲಿನ ಕೈಗಾರಿಕೆಗಳ ಬಗ್ಗೆ ಹೇಳಿ."},
		{"ಶಿವಮೊಗ್ಗ", "ಶಿವಮೊಗ್ಗದ ಕೈಗಾರಿಕಾ ಗಮನವೇನು?"},
	},
}

// Suggestions returns the hub prompts for lang, falling back to English.
func Suggestions(lang Language) []Suggestion {
	s, ok := suggestions[lang]
	if !ok {
		s = suggestions[English]
	}
	return append([]Suggestion(nil), s...)
}
