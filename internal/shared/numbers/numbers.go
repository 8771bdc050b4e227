// Package numbers concentra a normalização de dezenas do bolão: tokens viram
// inteiros com zero à esquerda ("5" -> "05"), e as mesmas regras de faixa e
// duplicidade valem para palpites e sorteios.
package numbers

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize converte cada token em dezena zero-padded de 2 dígitos,
// descartando os que não parseiam. A ordem de entrada é preservada.
func Normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			continue
		}
		out = append(out, fmt.Sprintf("%02d", n))
	}
	return out
}

// OutOfRange devolve as dezenas fora de [lo, hi].
func OutOfRange(nums []string, lo, hi int) []string {
	var bad []string
	for _, s := range nums {
		n, err := strconv.Atoi(s)
		if err != nil || n < lo || n > hi {
			bad = append(bad, s)
		}
	}
	return bad
}

// Duplicates devolve as dezenas que aparecem mais de uma vez, uma única vez
// cada.
func Duplicates(nums []string) []string {
	count := map[string]int{}
	for _, s := range nums {
		count[s]++
	}
	var dups []string
	seen := map[string]bool{}
	for _, s := range nums {
		if count[s] > 1 && !seen[s] {
			seen[s] = true
			dups = append(dups, s)
		}
	}
	return dups
}

// Intersect devolve as dezenas de a presentes em b, na ordem de a.
func Intersect(a, b []string) []string {
	inB := map[string]bool{}
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if inB[s] {
			out = append(out, s)
		}
	}
	return out
}

// Union acumula conjuntos preservando a primeira aparição.
func Union(sets ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, set := range sets {
		for _, s := range set {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
