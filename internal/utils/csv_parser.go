package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// RequiredColumns must be present after alias resolution. Age comes from
// either dateOfBirth or age, checked separately.
var RequiredColumns = []string{
	"loanAmount",
	"loanPurpose",
	"gender",
	"income",
	"employment",
}

// ColumnAliases maps lower-cased header names to submission field keys.
var ColumnAliases = map[string]string{
	// identity
	"name":      "fullName",
	"fullname":  "fullName",
	"full_name": "fullName",
	"full name": "fullName",
	"email":     "email",
	"mail":      "email",
	"phone":     "phone",

	// amount
	"loanamount":  "loanAmount",
	"loan_amount": "loanAmount",
	"loan amount": "loanAmount",
	"amount":      "loanAmount",

	// purpose
	"loanpurpose":  "loanPurpose",
	"loan_purpose": "loanPurpose",
	"purpose":      "loanPurpose",

	// demographics
	"gender":        "gender",
	"sex":           "gender",
	"age":           "age",
	"dateofbirth":   "dateOfBirth",
	"date_of_birth": "dateOfBirth",
	"dob":           "dateOfBirth",

	// income
	"income":        "income",
	"annual_income": "income",
	"annualincome":  "income",
	"annual income": "income",
	"salary":        "income",

	// employment
	"employment":        "employment",
	"employment_status": "employment",
	"employmentstatus":  "employment",
	"employment status": "employment",
	"occupation":        "employment",

	// credit
	"creditscore":  "creditScore",
	"credit_score": "creditScore",
	"credit score": "creditScore",

	"loanterm":  "loanTerm",
	"loan_term": "loanTerm",
	"term":      "loanTerm",
}

// ApplicantRow is one parsed CSV line.
type ApplicantRow struct {
	Line   int
	Fields map[string]string
}

// CSVParser handles parsing of applicant CSV files.
type CSVParser struct {
	columns map[int]string
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{columns: make(map[int]string)}
}

// ParseApplicants returns one field map per data row, keyed like a form submission.
// Unknown columns are kept under their original header. Row errors do not stop parsing.
func (p *CSVParser) ParseApplicants(content string) ([]ApplicantRow, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}
	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	var rows []ApplicantRow
	var parseErrors []error
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}
		if isBlank(record) {
			continue
		}

		fields := make(map[string]string, len(record))
		for i, value := range record {
			if key, ok := p.columns[i]; ok {
				fields[key] = strings.TrimSpace(value)
			}
		}
		rows = append(rows, ApplicantRow{Line: lineNum, Fields: fields})
	}

	if len(rows) == 0 && len(parseErrors) == 0 {
		return nil, []error{ErrNoDataRows}
	}
	if len(rows) == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return rows, parseErrors
}

// buildColumnMapping maps column indices to field keys.
func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columns = make(map[int]string, len(header))
	present := make(map[string]bool, len(header))

	for i, col := range header {
		original := strings.TrimSpace(col)
		key := original
		if alias, ok := ColumnAliases[strings.ToLower(original)]; ok {
			key = alias
		}
		p.columns[i] = key
		present[key] = true
	}

	var missing []string
	for _, required := range RequiredColumns {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	if !present["age"] && !present["dateOfBirth"] {
		missing = append(missing, "dateOfBirth")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
