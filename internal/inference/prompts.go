package inference

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Descriptor is the transaction summary sent for classification. The
// amount is absolute; Direction carries the sign.
type Descriptor struct {
	Merchant  string `json:"merchant"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// ColumnMappingPrompt asks which headers hold each logical role.
func ColumnMappingPrompt(headers, sample []string, roles []string) string {
	var sb strings.Builder
	sb.WriteString("You are analysing the header row of a bank statement CSV export.\n")
	sb.WriteString("Identify which header holds each of these roles: ")
	sb.WriteString(strings.Join(roles, ", "))
	sb.WriteString(".\n")
	sb.WriteString("\"amount\" is a single signed amount column; \"debit\" and \"credit\" are separate outflow and inflow columns.\n\n")
	sb.WriteString("Headers: " + mustJSON(headers) + "\n")
	sb.WriteString("Sample row: " + mustJSON(sample) + "\n\n")
	sb.WriteString("Respond with ONLY a JSON object whose keys are the role names and whose values are ")
	sb.WriteString("exact header names from the list, or null when no header fits.\n")
	return sb.String()
}

// StandardizePrompt asks to map raw category labels onto the taxonomy.
func StandardizePrompt(raw, taxonomy []string) string {
	var sb strings.Builder
	sb.WriteString("Map each of these bank category labels to the closest standard category.\n\n")
	sb.WriteString("Labels: " + mustJSON(raw) + "\n")
	sb.WriteString("Standard categories: " + mustJSON(taxonomy) + "\n\n")
	sb.WriteString("Respond with ONLY a JSON object mapping every input label to exactly one standard category.\n")
	return sb.String()
}

// BatchClassifyPrompt asks for one category per descriptor, in order.
func BatchClassifyPrompt(items []Descriptor, taxonomy []string) string {
	var sb strings.Builder
	sb.WriteString("Classify each of these bank transactions into one category.\n\n")
	sb.WriteString("Categories: " + mustJSON(taxonomy) + "\n")
	sb.WriteString("Transactions: " + mustJSON(items) + "\n\n")
	sb.WriteString(fmt.Sprintf("Respond with ONLY a JSON array of exactly %d category strings, ", len(items)))
	sb.WriteString("in the same order as the transactions.\n")
	return sb.String()
}

// ClassifyPrompt asks for the category of a single descriptor.
func ClassifyPrompt(item Descriptor, taxonomy []string) string {
	var sb strings.Builder
	sb.WriteString("Classify this bank transaction into one category.\n\n")
	sb.WriteString("Categories: " + mustJSON(taxonomy) + "\n")
	sb.WriteString("Transaction: " + mustJSON(item) + "\n\n")
	sb.WriteString("Respond with ONLY a JSON object of the form {\"category\": \"<category>\"}.\n")
	return sb.String()
}
