package extract

import "strings"

// categoryKeywords maps the terms fiscal documents actually carry to
// the office's category set. Checked in order; first hit wins.
var categoryKeywords = []struct {
	category string
	terms    []string
}{
	{"payroll", []string{"folha de pagamento", "holerite", "contracheque", "salário", "salario", "fgts", "inss"}},
	{"invoice", []string{"nota fiscal", "nf-e", "nfs-e", "danfe", "fatura"}},
	{"bank_statement", []string{"extrato bancário", "extrato bancario", "extrato de conta", "saldo anterior", "saldo final"}},
	{"payment_receipt", []string{"comprovante de pagamento", "comprovante", "recibo"}},
	{"tax_return", []string{"darf", "das ", "guia de recolhimento", "imposto de renda", "declaração", "declaracao"}},
	{"trial_balance", []string{"balancete"}},
	{"income_statement", []string{"dre", "demonstração do resultado", "demonstracao do resultado"}},
}

// Classify suggests a category from the document text and file name.
// Falls back to "other" when nothing matches.
func Classify(text, fileName string) string {
	haystack := strings.ToLower(text + " " + fileName)
	for _, ck := range categoryKeywords {
		for _, term := range ck.terms {
			if strings.Contains(haystack, term) {
				return ck.category
			}
		}
	}
	return "other"
}
