package assessment

// Question ids of the default assessment that the score engine reads.
const (
	QHealthGoal       = "health_goal"
	QGender           = "gender"
	QAge              = "age"
	QMood             = "mood"
	QSleepQuality     = "sleep_quality"
	QPhysicalDistress = "physical_distress"
	QMedications      = "medications"
	QSymptoms         = "symptoms"
	QSoughtHelp       = "sought_help"
	QHelpType         = "help_type"
	QStressLevel      = "stress_level"
	QSupportNetwork   = "support_network"
	QStressors        = "stressors"
	QExpression       = "expression"
)

const (
	MinAge     = 13
	MaxAge     = 100
	InitialAge = 18
)

// SymptomSuggestions are the chips offered for the symptoms question.
var SymptomSuggestions = []string{
	"Depressed", "Anxious", "Lonely", "Angry", "Overwhelmed", "Hopeless", "Irritable", "Insomnia",
}

func en(s string) map[string]string { return map[string]string{"en": s} }

func opts(pairs ...string) []Option {
	out := make([]Option, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Option{ID: pairs[i], LabelI18n: en(pairs[i+1])})
	}
	return out
}

func yesNo() []Option { return opts("yes", "Yes", "no", "No") }

// DefaultCatalog builds a fresh copy of the app's assessment.
func DefaultCatalog() *Catalog {
	initialAge := float64(InitialAge)
	questions := []Question{
		{
			ID: QHealthGoal, Type: QuestionSingleSelect,
			PromptI18n: en("What's your health goal for today?"),
			Config: QuestionConfig{Options: opts(
				"reduce_stress", "I want to reduce stress",
				"try_ai_therapy", "I want to try AI therapy",
				"cope_with_trauma", "I want to cope with trauma",
				"better_person", "I want to be a better person",
				"just_trying", "Just trying out the app",
			)},
		},
		{
			ID: QGender, Type: QuestionSingleSelect,
			PromptI18n: en("What's your official gender?"),
			Config: QuestionConfig{Options: opts(
				"male", "Male", "female", "Female", "other", "Other", "prefer_not", "Prefer not to say",
			)},
		},
		{
			ID: QAge, Type: QuestionNumericRange,
			PromptI18n: en("What's your age?"),
			Config:     QuestionConfig{Min: MinAge, Max: MaxAge, Step: 1, Integer: true, Default: &initialAge},
		},
		{
			ID: QMood, Type: QuestionScale,
			PromptI18n: en("How would you describe your mood?"),
			Config: QuestionConfig{Labels: map[int]string{
				1: "Depressed", 2: "Sad", 3: "Neutral", 4: "Happy", 5: "Overjoyed",
			}},
		},
		{
			ID: QSleepQuality, Type: QuestionScale,
			PromptI18n: en("How would you rate your sleep quality?"),
			Config: QuestionConfig{Labels: map[int]string{
				1: "Worst", 2: "Poor", 3: "Fair", 4: "Good", 5: "Excellent",
			}},
		},
		{
			ID: QPhysicalDistress, Type: QuestionSingleSelect,
			PromptI18n: en("Are you experiencing any physical distress?"),
			Config:     QuestionConfig{Options: yesNo()},
		},
		{
			ID: QMedications, Type: QuestionMultiSelect,
			PromptI18n: en("Are you taking any medications?"),
			Config: QuestionConfig{Options: opts(
				"prescribed", "Prescribed medications",
				"over_the_counter", "Over-the-counter supplements",
				"none", "I'm not taking any",
			)},
		},
		{
			ID: QSymptoms, Type: QuestionTagList,
			PromptI18n: en("Do you have other mental health symptoms?"),
			Config:     QuestionConfig{MaxTags: DefaultMaxTags, Suggestions: SymptomSuggestions},
		},
		{
			ID: QSoughtHelp, Type: QuestionSingleSelect,
			PromptI18n: en("Have you sought professional help before?"),
			Config:     QuestionConfig{Options: yesNo()},
		},
		{
			ID: QHelpType, Type: QuestionSingleSelect,
			PromptI18n: en("What kind of professional help did you receive?"),
			Config: QuestionConfig{Options: opts(
				"therapist", "Therapist", "psychiatrist", "Psychiatrist", "counselor", "Counselor",
				"support_group", "Support group", "other", "Other",
			)},
			Condition: &Condition{Question: QSoughtHelp, Equals: "yes"},
		},
		{
			ID: QStressLevel, Type: QuestionScale,
			PromptI18n: en("How would you rate your stress level?"),
			Config: QuestionConfig{Labels: map[int]string{
				1: "You Are Not Stressed",
				2: "Slightly Stressed",
				3: "Moderately Stressed",
				4: "Very Stressed",
				5: "Extremely Stressed Out.",
			}},
		},
		{
			ID: QSupportNetwork, Type: QuestionSingleSelect,
			PromptI18n: en("Do you have people you can turn to for support?"),
			Config: QuestionConfig{Options: opts(
				"strong", "Yes, several", "some", "One or two", "none", "Not really",
			)},
		},
		{
			ID: QStressors, Type: QuestionMultiSelect,
			PromptI18n: en("What is causing you stress lately?"),
			Config: QuestionConfig{Options: opts(
				"work", "Work", "relationships", "Relationships", "finances", "Finances",
				"health", "Health", "loneliness", "Loneliness", "other", "Other",
			)},
		},
		{
			ID: QExpression, Type: QuestionFreeText,
			PromptI18n: en("Anything else you would like to share?"),
			Config:     QuestionConfig{MaxLength: DefaultMaxLength},
		},
	}
	c, err := NewCatalog(questions)
	if err != nil {
		panic(err)
	}
	return c
}
