package translation

import "strings"

// staticDictionary covers the short UI phrases and common intake prompts
// that account for most translation traffic. Keys are lowercase English;
// values are keyed by target language name. A hit here costs nothing and
// never varies.
var staticDictionary = map[string]map[string]string{
	"hello": {
		"tamil":  "வணக்கம்",
		"hindi":  "नमस्ते",
		"telugu": "నమస్కారం",
	},
	"thank you": {
		"tamil":  "நன்றி",
		"hindi":  "धन्यवाद",
		"telugu": "ధన్యవాదాలు",
	},
	"how are you feeling?": {
		"tamil":  "நீங்கள் எப்படி உணர்கிறீர்கள்?",
		"hindi":  "आप कैसा महसूस कर रहे हैं?",
		"telugu": "మీరు ఎలా ఉన్నారు?",
	},
	"where does it hurt?": {
		"tamil":  "எங்கே வலிக்கிறது?",
		"hindi":  "दर्द कहाँ हो रहा है?",
		"telugu": "ఎక్కడ నొప్పిగా ఉంది?",
	},
	"since when do you have these symptoms?": {
		"tamil":  "இந்த அறிகுறிகள் எப்போதிலிருந்து உள்ளன?",
		"hindi":  "ये लक्षण कब से हैं?",
		"telugu": "ఈ లక్షణాలు ఎప్పటి నుండి ఉన్నాయి?",
	},
	"please wait": {
		"tamil":  "தயவுசெய்து காத்திருங்கள்",
		"hindi":  "कृपया प्रतीक्षा करें",
		"telugu": "దయచేసి వేచి ఉండండి",
	},
	"the doctor will see you now": {
		"tamil":  "மருத்துவர் இப்போது உங்களைப் பார்ப்பார்",
		"hindi":  "डॉक्टर अब आपको देखेंगे",
		"telugu": "డాక్టర్ ఇప్పుడు మిమ్మల్ని చూస్తారు",
	},
	"take rest and drink water": {
		"tamil":  "ஓய்வெடுத்து தண்ணீர் குடிக்கவும்",
		"hindi":  "आराम करें और पानी पिएं",
		"telugu": "విశ్రాంతి తీసుకోండి మరియు నీరు త్రాగండి",
	},
}

// lookupStatic returns the dictionary translation for english-to-target
// phrases, matching case-insensitively on the trimmed text.
func lookupStatic(text, sourceLang, targetLang string) (string, bool) {
	if sourceLang != "english" {
		return "", false
	}
	entry, ok := staticDictionary[strings.ToLower(strings.TrimSpace(text))]
	if !ok {
		return "", false
	}
	translated, ok := entry[targetLang]
	return translated, ok
}
