package compliance

import "github.com/FairForge/dctip/internal/common"

// ============================================================================
// Standards per industry
// ============================================================================

var industryStandards = map[string][]string{
	"healthcare":    {"HIPAA", "HITECH", "FDA 21 CFR Part 11"},
	"finance":       {"PCI-DSS", "SOX", "GLBA"},
	"government":    {"FISMA", "FedRAMP", "NIST 800-53"},
	"education":     {"FERPA", "COPPA"},
	"ecommerce":     {"PCI-DSS", "GDPR", "CCPA"},
	"manufacturing": {"IEC 62443", "NIST CSF", "ISO 27001"},
}

var defaultStandards = []string{"ISO 27001", "NIST CSF"}

// StandardsFor returns the standards scored for an industry.
func StandardsFor(industry string) []string {
	if s, ok := industryStandards[common.NormalizeIndustry(industry)]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), defaultStandards...)
}

// ============================================================================
// Control templates
// ============================================================================

// ControlTemplate fully describes a control seeded into a new catalog.
type ControlTemplate struct {
	ControlID   string
	Name        string
	Description string
	Standard    string
	Category    string
}

var healthcareControls = []ControlTemplate{
	{"HIPAA-001", "Access Control", "Restrict access to electronic protected health information to authorized users", "HIPAA", "access_control"},
	{"HIPAA-002", "Audit Controls", "Record and examine activity in systems that contain or use ePHI", "HIPAA", "monitoring"},
	{"HIPAA-003", "Integrity Controls", "Protect ePHI from improper alteration or destruction", "HIPAA", "data_integrity"},
	{"HIPAA-004", "Transmission Security", "Encrypt ePHI transmitted over electronic networks", "HIPAA", "encryption"},
	{"HIPAA-005", "Encryption at Rest", "Encrypt stored ePHI on servers, workstations and backups", "HIPAA", "encryption"},
	{"HITECH-001", "Breach Notification", "Notify affected individuals and HHS of breaches of unsecured PHI", "HITECH", "incident_response"},
	{"FDA-001", "Electronic Signatures", "Bind electronic signatures to their records per 21 CFR Part 11", "FDA 21 CFR Part 11", "data_integrity"},
}

var financeControls = []ControlTemplate{
	{"PCI-001", "Network Firewall", "Install and maintain firewall configuration to protect cardholder data", "PCI-DSS", "network_security"},
	{"PCI-002", "Cardholder Data Encryption", "Encrypt transmission of cardholder data across open, public networks", "PCI-DSS", "encryption"},
	{"PCI-003", "Access Restriction", "Restrict access to cardholder data by business need to know", "PCI-DSS", "access_control"},
	{"PCI-004", "Activity Monitoring", "Track and monitor all access to network resources and cardholder data", "PCI-DSS", "monitoring"},
	{"SOX-001", "Financial Reporting Controls", "Maintain internal controls over financial reporting systems", "SOX", "governance"},
	{"SOX-002", "Change Management", "Authorize, test and document changes to financial systems", "SOX", "change_management"},
	{"GLBA-001", "Customer Information Safeguards", "Protect the security and confidentiality of customer records", "GLBA", "data_protection"},
}

var governmentControls = []ControlTemplate{
	{"FISMA-001", "System Inventory", "Maintain an inventory of information systems and their interfaces", "FISMA", "asset_management"},
	{"FISMA-002", "Risk Categorization", "Categorize systems by impact level per FIPS 199", "FISMA", "risk_management"},
	{"FEDRAMP-001", "Continuous Monitoring", "Continuously monitor cloud services for security control effectiveness", "FedRAMP", "monitoring"},
	{"FEDRAMP-002", "Incident Reporting", "Report security incidents to the agency and US-CERT within required timeframes", "FedRAMP", "incident_response"},
	{"NIST-AC-2", "Account Management", "Manage system accounts including creation, review and removal", "NIST 800-53", "access_control"},
	{"NIST-SC-13", "Cryptographic Protection", "Use FIPS-validated cryptography to protect information", "NIST 800-53", "encryption"},
	{"NIST-SR-3", "Supply Chain Controls", "Employ controls to protect against supply chain risks", "NIST 800-53", "supply_chain"},
}

var genericControls = []ControlTemplate{
	{"ISO-A5.15", "Access Control Policy", "Define and enforce rules for physical and logical access to information", "ISO 27001", "access_control"},
	{"ISO-A8.24", "Use of Cryptography", "Define and apply rules for the effective use of cryptography", "ISO 27001", "encryption"},
	{"ISO-A5.24", "Incident Management Planning", "Plan and prepare for managing information security incidents", "ISO 27001", "incident_response"},
	{"ISO-A8.13", "Information Backup", "Maintain and regularly test backup copies of information and software", "ISO 27001", "resilience"},
	{"NIST-CSF-DE.CM", "Continuous Monitoring", "Monitor networks and assets to detect cybersecurity events", "NIST CSF", "monitoring"},
	{"NIST-CSF-PR.AT", "Awareness Training", "Provide cybersecurity awareness education to personnel", "NIST CSF", "training"},
}

// TemplateFor returns the controls seeded for an industry. Industries
// without a dedicated template get the generic one.
func TemplateFor(industry string) []ControlTemplate {
	switch common.NormalizeIndustry(industry) {
	case "healthcare":
		return healthcareControls
	case "finance":
		return financeControls
	case "government":
		return governmentControls
	default:
		return genericControls
	}
}

// ============================================================================
// Industry templates
// ============================================================================

// IndustryTemplate is the static guidance served to clients per industry.
type IndustryTemplate struct {
	Name             string   `json:"name"`
	Standards        []string `json:"standards"`
	KeyControls      []string `json:"key_controls"`
	ThreatPriorities []string `json:"threat_priorities"`
}

var industryTemplates = map[string]IndustryTemplate{
	"healthcare": {
		Name:      "HIPAA Compliance",
		Standards: []string{"HIPAA", "HITECH", "FDA 21 CFR Part 11"},
		KeyControls: []string{
			"PHI Access Monitoring",
			"Encryption at Rest & Transit",
			"Audit Trail Maintenance",
			"Breach Notification Protocol",
		},
		ThreatPriorities: []string{"ransomware", "data_breach", "insider_threat"},
	},
	"finance": {
		Name:      "Financial Services Compliance",
		Standards: []string{"PCI-DSS", "SOX", "GLBA", "FFIEC"},
		KeyControls: []string{
			"Transaction Monitoring",
			"Fraud Detection",
			"Data Loss Prevention",
			"Access Control Management",
		},
		ThreatPriorities: []string{"phishing", "data_breach", "intrusion"},
	},
	"government": {
		Name:      "Government Security Compliance",
		Standards: []string{"FISMA", "FedRAMP", "NIST 800-53", "CISA Guidelines"},
		KeyControls: []string{
			"Continuous Monitoring",
			"Incident Response",
			"Supply Chain Security",
			"Zero Trust Architecture",
		},
		ThreatPriorities: []string{"intrusion", "malware", "insider_threat"},
	},
	"education": {
		Name:      "Education Sector Compliance",
		Standards: []string{"FERPA", "COPPA", "State Privacy Laws"},
		KeyControls: []string{
			"Student Data Protection",
			"Network Segmentation",
			"Endpoint Security",
			"Email Security",
		},
		ThreatPriorities: []string{"phishing", "ransomware", "data_breach"},
	},
	"ecommerce": {
		Name:      "E-Commerce Security",
		Standards: []string{"PCI-DSS", "GDPR", "CCPA"},
		KeyControls: []string{
			"Payment Security",
			"Bot Protection",
			"DDoS Mitigation",
			"Customer Data Protection",
		},
		ThreatPriorities: []string{"ddos", "phishing", "data_breach"},
	},
	"manufacturing": {
		Name:      "Manufacturing/ICS Security",
		Standards: []string{"IEC 62443", "NIST CSF", "ISO 27001"},
		KeyControls: []string{
			"OT/IT Segmentation",
			"SCADA Protection",
			"Supply Chain Security",
			"Physical Security Integration",
		},
		ThreatPriorities: []string{"intrusion", "malware", "insider_threat"},
	},
}

// IndustryTemplates returns a copy of the per-industry guidance.
func IndustryTemplates() map[string]IndustryTemplate {
	out := make(map[string]IndustryTemplate, len(industryTemplates))
	for k, v := range industryTemplates {
		out[k] = v
	}
	return out
}
