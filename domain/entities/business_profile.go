package entities

// BusinessProfile is the company metadata collected the first time the ERP
// system is started. It is written once and only read afterwards.
type BusinessProfile struct {
	Name           string `json:"name" bson:"name" db:"name"`
	Phone          string `json:"phone" bson:"phone" db:"phone"`
	Address        string `json:"address" bson:"address" db:"address"`
	Type           string `json:"type" bson:"type" db:"type"`
	Employees      string `json:"employees" bson:"employees" db:"employees"`
	AdditionalInfo string `json:"additional_info" bson:"additional_info" db:"additional_info"`
}

// ProfileQuestion pairs a prompt with the profile field it fills
type ProfileQuestion struct {
	Prompt string
	Set    func(p *BusinessProfile, answer string)
}

// ProfileQuestions lists the onboarding prompts in the order they are asked
var ProfileQuestions = []ProfileQuestion{
	{"What is the name of your business?", func(p *BusinessProfile, a string) { p.Name = a }},
	{"What is the phone number of your business?", func(p *BusinessProfile, a string) { p.Phone = a }},
	{"What is the address of your business?", func(p *BusinessProfile, a string) { p.Address = a }},
	{"What type of business is it (e.g., retail, manufacturing, etc.)?", func(p *BusinessProfile, a string) { p.Type = a }},
	{"How many employees does your business have?", func(p *BusinessProfile, a string) { p.Employees = a }},
	{"Please describe any additional relevant information about your business.", func(p *BusinessProfile, a string) { p.AdditionalInfo = a }},
}
