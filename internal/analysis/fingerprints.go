package analysis

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shadwsndst/dmarc-rua-dashboard/pkg/types"
)

// DefaultFingerprints returns the built-in provider table. Entries are
// ordered; earlier fingerprints win when several match the same domain.
func DefaultFingerprints() []types.Fingerprint {
	return []types.Fingerprint{
		{Match: "sendgrid", Provider: "SendGrid"},
		{Match: "amazonses", Provider: "Amazon SES"},
		{Match: "mailchimp", Provider: "Mailchimp"},
		{Match: "mcsv.net", Provider: "Mailchimp"},
		{Match: "mcdlv.net", Provider: "Mailchimp"},
		{Match: "mandrillapp", Provider: "Mandrill"},
		{Match: "mailgun", Provider: "Mailgun"},
		{Match: "postmarkapp", Provider: "Postmark"},
		{Match: "mtasv.net", Provider: "Postmark"},
		{Match: "sparkpost", Provider: "SparkPost"},
		{Match: "brevo", Provider: "Brevo"},
		{Match: "sendinblue", Provider: "Brevo"},
		{Match: "constantcontact", Provider: "Constant Contact"},
		{Match: "hubspot", Provider: "HubSpot"},
		{Match: "exacttarget", Provider: "Salesforce Marketing Cloud"},
		{Match: "salesforce", Provider: "Salesforce"},
		{Match: "pphosted", Provider: "Proofpoint"},
		{Match: "mimecast", Provider: "Mimecast"},
		{Match: "barracuda", Provider: "Barracuda"},
		{Match: "zohomail", Provider: "Zoho Mail"},
		{Match: "zoho.com", Provider: "Zoho Mail"},
		{Match: "outlook", Provider: "Microsoft 365"},
		{Match: "protection.office365", Provider: "Microsoft 365"},
		{Match: "google", Provider: "Google Workspace"},
		{Match: "yandex", Provider: "Yandex Mail"},
		{Match: "fastmail", Provider: "Fastmail"},
	}
}

// LoadFingerprints reads an ordered fingerprint table from a YAML file:
//
//	- match: sendgrid
//	  provider: SendGrid
//
// The list order carries the tie-break semantics of the built-in table.
func LoadFingerprints(path string) ([]types.Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fingerprint file: %w", err)
	}

	var table []types.Fingerprint
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing fingerprint file: %w", err)
	}

	for i := range table {
		table[i].Match = strings.ToLower(strings.TrimSpace(table[i].Match))
		if table[i].Match == "" {
			return nil, fmt.Errorf("fingerprint entry %d has an empty match", i)
		}
		if strings.TrimSpace(table[i].Provider) == "" {
			return nil, fmt.Errorf("fingerprint entry %d (%q) has an empty provider", i, table[i].Match)
		}
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("fingerprint file %s contains no entries", path)
	}

	return table, nil
}
