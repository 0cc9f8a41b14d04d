// Package camt reads ISO 20022 CAMT.053 bank-to-customer statements.
package camt

import (
	"fmt"
	"io"
	"strings"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Entry is one booked statement line. Amount is signed: credits are positive, debits negative.
type Entry struct {
	BookingDate models.Date
	Amount      decimal.Decimal
	Currency    string
	Description string
	Reference   string
}

// Statement is the subset of a CAMT.053 statement the ledger needs.
type Statement struct {
	IBAN           string
	Entries        []Entry
	ClosingBalance *decimal.Decimal
}

// Parse reads a statement document. Only booked entries are returned; pending ones are skipped.
func Parse(r io.Reader) (*Statement, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %v", err)
	}

	stmts := doc.FindElements("//BkToCstmrStmt/Stmt")
	if len(stmts) == 0 {
		return nil, fmt.Errorf("no statement found in XML")
	}

	result := &Statement{}
	for _, stmt := range stmts {
		if iban := stmt.FindElement("./Acct/Id/IBAN"); iban != nil && result.IBAN == "" {
			result.IBAN = strings.TrimSpace(iban.Text())
		}

		for _, bal := range stmt.FindElements("./Bal") {
			code := bal.FindElement("./Tp/CdOrPrtry/Cd")
			if code == nil || strings.TrimSpace(code.Text()) != "CLBD" {
				continue
			}
			amount, err := signedAmount(bal)
			if err != nil {
				return nil, fmt.Errorf("closing balance: %w", err)
			}
			result.ClosingBalance = &amount
		}

		for i, ntry := range stmt.FindElements("./Ntry") {
			if !booked(ntry) {
				continue
			}
			entry, err := parseEntry(ntry)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i+1, err)
			}
			result.Entries = append(result.Entries, entry)
		}
	}

	return result, nil
}

func booked(ntry *etree.Element) bool {
	// Sts is a plain code in camt.053.001.02 and a Cd child in later versions
	sts := ntry.FindElement("./Sts/Cd")
	if sts == nil {
		sts = ntry.FindElement("./Sts")
	}
	if sts == nil {
		return true
	}
	return strings.TrimSpace(sts.Text()) == "BOOK"
}

func parseEntry(ntry *etree.Element) (Entry, error) {
	amount, err := signedAmount(ntry)
	if err != nil {
		return Entry{}, err
	}

	dateElement := ntry.FindElement("./BookgDt/Dt")
	if dateElement == nil {
		dateElement = ntry.FindElement("./BookgDt/DtTm")
	}
	if dateElement == nil {
		dateElement = ntry.FindElement("./ValDt/Dt")
	}
	if dateElement == nil {
		return Entry{}, fmt.Errorf("booking date not found")
	}
	date, err := models.ParseDate(dateElement.Text())
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{BookingDate: date, Amount: amount}
	if amt := ntry.FindElement("./Amt"); amt != nil {
		entry.Currency = amt.SelectAttrValue("Ccy", "")
	}
	if ref := ntry.FindElement("./AcctSvcrRef"); ref != nil {
		entry.Reference = strings.TrimSpace(ref.Text())
	}
	entry.Description = description(ntry)
	return entry, nil
}

// signedAmount reads Amt and applies CdtDbtInd.
func signedAmount(e *etree.Element) (decimal.Decimal, error) {
	amt := e.FindElement("./Amt")
	if amt == nil {
		return decimal.Zero, fmt.Errorf("amount element not found")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(amt.Text()))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount: %v", err)
	}
	ind := e.FindElement("./CdtDbtInd")
	if ind == nil {
		return decimal.Zero, fmt.Errorf("credit/debit indicator not found")
	}
	switch strings.TrimSpace(ind.Text()) {
	case "CRDT":
		return amount, nil
	case "DBIT":
		return amount.Neg(), nil
	}
	return decimal.Zero, fmt.Errorf("unknown credit/debit indicator %q", ind.Text())
}

func description(ntry *etree.Element) string {
	var parts []string
	for _, u := range ntry.FindElements("./NtryDtls/TxDtls/RmtInf/Ustrd") {
		if t := strings.TrimSpace(u.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		if info := ntry.FindElement("./AddtlNtryInf"); info != nil {
			parts = append(parts, strings.TrimSpace(info.Text()))
		}
	}
	return strings.Join(parts, " ")
}
