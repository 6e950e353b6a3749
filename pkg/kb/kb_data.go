package kb

import (
	"regexp"

	"github.com/narayan-clinic/rx-pipeline/pkg/model"
)

// buildDrugGazetteer returns the static drug reference table: canonical
// generic name, aliases/brand names, Arabic/Tamil transliterations, and
// the set of frequency phrases legal for that drug. This is a curated
// subset sized for the pipeline's target prescription vocabulary, not an
// exhaustive formulary.
func buildDrugGazetteer() []DrugEntry {
	return []DrugEntry{
		{
			Canonical:          "paracetamol",
			Aliases:            []string{"acetaminophen", "para"},
			Brands:             []string{"tylenol", "crocin", "dolo", "calpol"},
			TamilForms:         []string{"parasital"},
			ArabicForms:        []string{"باراسيتامول"},
			AllowedFrequencies: []string{"once daily", "twice daily", "3 times a day", "every 6 hours", "as needed"},
			DefaultFrequency:   "3 times a day",
		},
		{
			Canonical:          "erythromycin",
			Aliases:            []string{"erythrocin"},
			AllowedFrequencies: []string{"twice daily", "3 times a day", "4 times a day"},
			DefaultFrequency:   "3 times a day",
		},
		{
			Canonical:          "azithromycin",
			Brands:             []string{"zithromax", "azithral"},
			AllowedFrequencies: []string{"once daily"},
			DefaultFrequency:   "once daily",
		},
		{
			Canonical:          "amoxicillin",
			Brands:             []string{"amoxil", "mox"},
			AllowedFrequencies: []string{"twice daily", "3 times a day"},
			DefaultFrequency:   "3 times a day",
		},
		{
			Canonical:          "levocetirizine",
			Brands:             []string{"levrix", "xyzal"},
			AllowedFrequencies: []string{"once at night", "once daily"},
			DefaultFrequency:   "once at night",
		},
		{
			Canonical:          "cetirizine",
			Brands:             []string{"zyrtec", "cetrizet"},
			AllowedFrequencies: []string{"once at night", "once daily"},
			DefaultFrequency:   "once at night",
		},
		{
			Canonical:          "nitrofurantoin",
			Brands:             []string{"stayhappi", "macrobid"},
			AllowedFrequencies: []string{"twice daily", "4 times a day"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "ibuprofen",
			Brands:             []string{"brufen", "advil"},
			AllowedFrequencies: []string{"twice daily", "3 times a day", "as needed"},
			DefaultFrequency:   "3 times a day",
		},
		{
			Canonical:          "pantoprazole",
			Brands:             []string{"pantocid", "protonix"},
			AllowedFrequencies: []string{"once daily"},
			DefaultFrequency:   "once daily",
		},
		{
			Canonical:          "metformin",
			Brands:             []string{"glucophage", "glycomet"},
			AllowedFrequencies: []string{"once daily", "twice daily"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "amoxiclav",
			Aliases:            []string{"amoxicillin clavulanate"},
			Brands:             []string{"augmentin"},
			AllowedFrequencies: []string{"twice daily", "3 times a day"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "ciprofloxacin",
			Brands:             []string{"ciplox", "cipro"},
			AllowedFrequencies: []string{"twice daily"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "domperidone",
			Brands:             []string{"domstal"},
			AllowedFrequencies: []string{"once daily", "twice daily", "3 times a day"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "ondansetron",
			Brands:             []string{"emeset", "zofran"},
			AllowedFrequencies: []string{"twice daily", "as needed"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "oseltamivir",
			Brands:             []string{"tamiflu"},
			AllowedFrequencies: []string{"twice daily"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "montelukast",
			Brands:             []string{"montair", "singulair"},
			AllowedFrequencies: []string{"once at night"},
			DefaultFrequency:   "once at night",
		},
		{
			Canonical:          "salbutamol",
			Aliases:            []string{"albuterol"},
			Brands:             []string{"asthalin", "ventolin"},
			AllowedFrequencies: []string{"as needed", "twice daily", "3 times a day"},
			DefaultFrequency:   "as needed",
		},
		{
			Canonical:          "mupirocin",
			Brands:             []string{"bactroban", "t-bact"},
			AllowedFrequencies: []string{"twice daily", "3 times a day"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "ofloxacin",
			Brands:             []string{"oflox"},
			AllowedFrequencies: []string{"twice daily", "3 times a day"},
			DefaultFrequency:   "twice daily",
		},
		{
			Canonical:          "warfarin",
			Brands:             []string{"coumadin"},
			AllowedFrequencies: []string{"once daily"},
			DefaultFrequency:   "once daily",
		},
		{
			Canonical:          "aspirin",
			Aliases:            []string{"acetylsalicylic acid"},
			Brands:             []string{"ecosprin"},
			AllowedFrequencies: []string{"once daily"},
			DefaultFrequency:   "once daily",
		},
	}
}

// extraMedicalKeywords lists complaint/diagnosis/test terms beyond the
// drug gazetteer, used by the ASR quality gate and Router keyword scorer.
func extraMedicalKeywords() []string {
	return []string{
		"fever", "cough", "cold", "headache", "pain", "vomiting", "nausea",
		"diarrhea", "rash", "infection", "inflection", "pharyngitis",
		"sinusitis", "bronchitis", "gastritis", "diabetes", "hypertension",
		"asthma", "allergy", "throat", "chest", "stomach", "abdomen",
		"nasal", "sinus", "pulmonary", "lung", "ear", "eye", "skin",
		"blood", "urine", "x-ray", "xray", "ultrasound", "scan",
		"tablet", "syrup", "drops", "injection", "ointment", "spray",
		"kaichel", "jalubeham", "udambu", "vayiru", // common Thanglish cues
		"peru", "peyar",
	}
}

func buildPhoneticCorrections() []PhoneticCorrection {
	raw := []struct{ pattern, replacement string }{
		{`(?i)\binflection\b`, "infection"},
		{`(?i)\binfructation\b`, "infection"},
		{`(?i)\bpharingitis\b`, "pharyngitis"},
		{`(?i)\bparacitamol\b`, "paracetamol"},
		{`(?i)\bparacitamal\b`, "paracetamol"},
		{`(?i)\bstayhappi\b`, "nitrofurantoin"},
		{`(?i)\btylenol\b`, "paracetamol"},
		{`(?i)\bcrocin\b`, "paracetamol"},
		{`(?i)\bdolo\b`, "paracetamol"},
		{`(?i)\baugmentin\b`, "amoxiclav"},
		{`(?i)\bzithromax\b`, "azithromycin"},
		{`(?i)\bazithral\b`, "azithromycin"},
		{`(?i)\bamoxil\b`, "amoxicillin"},
		{`(?i)\bmox\b`, "amoxicillin"},
		{`(?i)\bxyzal\b`, "levocetirizine"},
		{`(?i)\blevrix\b`, "levocetirizine"},
		{`(?i)\bzyrtec\b`, "cetirizine"},
		{`(?i)\bbrufen\b`, "ibuprofen"},
		{`(?i)\bpantocid\b`, "pantoprazole"},
		{`(?i)\bglycomet\b`, "metformin"},
		{`(?i)\bglucophage\b`, "metformin"},
		{`(?i)\bciplox\b`, "ciprofloxacin"},
		{`(?i)\bdomstal\b`, "domperidone"},
		{`(?i)\bemeset\b`, "ondansetron"},
		{`(?i)\btamiflu\b`, "oseltamivir"},
		{`(?i)\bmontair\b`, "montelukast"},
		{`(?i)\basthalin\b`, "salbutamol"},
		{`(?i)\bbactroban\b`, "mupirocin"},
		{`(?i)\bt-bact\b`, "mupirocin"},
		{`(?i)\becosprin\b`, "aspirin"},
	}
	out := make([]PhoneticCorrection, 0, len(raw))
	for _, r := range raw {
		out = append(out, PhoneticCorrection{Pattern: regexp.MustCompile(r.pattern), Replacement: r.replacement})
	}
	return out
}

func buildFormToRoute() map[string]model.Route {
	return map[string]model.Route{
		"tablet":      model.RouteOral,
		"tab":         model.RouteOral,
		"capsule":     model.RouteOral,
		"syrup":       model.RouteOral,
		"suspension":  model.RouteOral,
		"spray":       model.RouteNasal,
		"nasal spray": model.RouteNasal,
		"drops":       model.RouteOphthalmic,
		"eye drops":   model.RouteOphthalmic,
		"ear drops":   model.RouteOtic,
		"cream":       model.RouteTopical,
		"ointment":    model.RouteTopical,
		"gel":         model.RouteTopical,
		"lotion":      model.RouteTopical,
		"inhaler":     model.RouteInhaled,
		"nebulizer":   model.RouteInhaled,
		"injection":   model.RouteParenteral,
		"iv":          model.RouteParenteral,
		"suppository": model.RouteRectal,
	}
}

func buildDiagnosisAnatomy() map[string]AnatomyRule {
	return map[string]AnatomyRule{
		"sinusitis": {
			Allowed:   []string{"nasal", "sinus"},
			Forbidden: []string{"pulmonary", "lung", "cardiac"},
		},
		"rhinitis": {
			Allowed:   []string{"nasal"},
			Forbidden: []string{"pulmonary", "lung"},
		},
		"pharyngitis": {
			Allowed:   []string{"throat"},
			Forbidden: []string{"pulmonary", "cardiac"},
		},
		"bronchitis": {
			Allowed:   []string{"pulmonary", "lung", "chest"},
			Forbidden: []string{"nasal"},
		},
		"gastritis": {
			Allowed:   []string{"stomach", "abdomen"},
			Forbidden: []string{"pulmonary", "nasal"},
		},
	}
}

func buildAdviceTemplates() map[string]string {
	return map[string]string{
		"warm fluid": "drink warm fluids",
		"warm water": "drink warm fluids",
		"rest":       "take adequate rest",
		"cold":       "avoid cold food and drinks",
		"spicy":      "avoid spicy food",
		"follow up":  "follow up after course completion",
		"review":     "follow up after course completion",
		"complete":   "complete the full course of medication",
		"steam":      "take steam inhalation twice daily",
		"salt water": "gargle with warm salt water",
		"gargle":     "gargle with warm salt water",
	}
}

func buildDangerousPairs() [][2]string {
	return [][2]string{
		{"aspirin", "warfarin"},
		{"ibuprofen", "warfarin"},
		{"azithromycin", "warfarin"},
	}
}
