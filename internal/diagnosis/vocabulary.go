package diagnosis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSymptoms     = errors.New("please select at least one symptom")
	ErrUnknownSymptom = errors.New("unknown symptom")
)

// Symptoms is the classifier's feature vocabulary. A symptom's position is
// its feature index, so the order must match the training data exactly,
// including the irregular names the dataset shipped with.
var Symptoms = []string{
	"itching", "skin_rash", "nodal_skin_eruptions", "continuous_sneezing", "shivering",
	"chills", "joint_pain", "stomach_pain", "acidity", "ulcers_on_tongue",
	"muscle_wasting", "vomiting", "burning_micturition", "spotting_ urination", "fatigue",
	"weight_gain", "anxiety", "cold_hands_and_feets", "mood_swings", "weight_loss",
	"restlessness", "lethargy", "patches_in_throat", "irregular_sugar_level", "cough",
	"high_fever", "sunken_eyes", "breathlessness", "sweating", "dehydration",
	"indigestion", "headache", "yellowish_skin", "dark_urine", "nausea",
	"loss_of_appetite", "pain_behind_the_eyes", "back_pain", "constipation", "abdominal_pain",
	"diarrhoea", "mild_fever", "yellow_urine", "yellowing_of_eyes", "acute_liver_failure",
	"fluid_overload", "swelling_of_stomach", "swelled_lymph_nodes", "malaise", "blurred_and_distorted_vision",
	"phlegm", "throat_irritation", "redness_of_eyes", "sinus_pressure", "runny_nose",
	"congestion", "chest_pain", "weakness_in_limbs", "fast_heart_rate", "pain_during_bowel_movements",
	"pain_in_anal_region", "bloody_stool", "irritation_in_anus", "neck_pain", "dizziness",
	"cramps", "bruising", "obesity", "swollen_legs", "swollen_blood_vessels",
	"puffy_face_and_eyes", "enlarged_thyroid", "brittle_nails", "swollen_extremeties", "excessive_hunger",
	"extra_marital_contacts", "drying_and_tingling_lips", "slurred_speech", "knee_pain", "hip_joint_pain",
	"muscle_weakness", "stiff_neck", "swelling_joints", "movement_stiffness", "spinning_movements",
	"loss_of_balance", "unsteadiness", "weakness_of_one_body_side", "loss_of_smell", "bladder_discomfort",
	"foul_smell_of urine", "continuous_feel_of_urine", "passage_of_gases", "internal_itching", "toxic_look_(typhos)",
	"depression", "irritability", "muscle_pain", "altered_sensorium", "red_spots_over_body",
	"belly_pain", "abnormal_menstruation", "dischromic _patches", "watering_from_eyes", "increased_appetite",
	"polyuria", "family_history", "mucoid_sputum", "rusty_sputum", "lack_of_concentration",
	"visual_disturbances", "receiving_blood_transfusion", "receiving_unsterile_injections", "coma", "stomach_bleeding",
	"distention_of_abdomen", "history_of_alcohol_consumption", "fluid_overload.1", "blood_in_sputum", "prominent_veins_on_calf",
	"palpitations", "painful_walking", "pus_filled_pimples", "blackheads", "scurring",
	"skin_peeling", "silver_like_dusting", "small_dents_in_nails", "inflammatory_nails", "blister",
	"red_sore_around_nose", "yellow_crust_ooze",
}

// Diseases maps classifier class indices to disease names. Names are kept
// byte-for-byte as the auxiliary tables key them, trailing spaces included.
var Diseases = map[int]string{
	0:  "(vertigo) Paroymsal  Positional Vertigo",
	1:  "AIDS",
	2:  "Acne",
	3:  "Alcoholic hepatitis",
	4:  "Allergy",
	5:  "Arthritis",
	6:  "Bronchial Asthma",
	7:  "Cervical spondylosis",
	8:  "Chicken pox",
	9:  "Chronic cholestasis",
	10: "Common Cold",
	11: "Dengue",
	12: "Diabetes ",
	13: "Dimorphic hemmorhoids(piles)",
	14: "Drug Reaction",
	15: "Fungal infection",
	16: "GERD",
	17: "Gastroenteritis",
	18: "Heart attack",
	19: "Hepatitis B",
	20: "Hepatitis C",
	21: "Hepatitis D",
	22: "Hepatitis E",
	23: "Hypertension ",
	24: "Hyperthyroidism",
	25: "Hypoglycemia",
	26: "Hypothyroidism",
	27: "Impetigo",
	28: "Jaundice",
	29: "Malaria",
	30: "Migraine",
	31: "Osteoarthristis",
	32: "Paralysis (brain hemorrhage)",
	33: "Peptic ulcer diseae",
	34: "Pneumonia",
	35: "Psoriasis",
	36: "Tuberculosis",
	37: "Typhoid",
	38: "Urinary tract infection",
	39: "Varicose veins",
	40: "hepatitis A",
}

var symptomIndex = func() map[string]int {
	idx := make(map[string]int, len(Symptoms))
	for i, s := range Symptoms {
		idx[s] = i
	}
	return idx
}()

// SymptomIndex returns the feature index of a symptom.
func SymptomIndex(name string) (int, bool) {
	i, ok := symptomIndex[name]
	return i, ok
}

// Encode builds the binary feature vector for a symptom selection. Repeated
// symptoms are harmless.
func Encode(symptoms []string) ([]float64, error) {
	if len(symptoms) == 0 {
		return nil, ErrNoSymptoms
	}

	vec := make([]float64, len(Symptoms))
	var unknown []string
	for _, s := range symptoms {
		i, ok := symptomIndex[s]
		if !ok {
			unknown = append(unknown, s)
			continue
		}
		vec[i] = 1
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymptom, strings.Join(unknown, ", "))
	}
	return vec, nil
}

// Decode lists the symptoms set in a feature vector, in vocabulary order.
func Decode(vec []float64) []string {
	var out []string
	for i, v := range vec {
		if i >= len(Symptoms) {
			break
		}
		if v == 1 {
			out = append(out, Symptoms[i])
		}
	}
	return out
}
