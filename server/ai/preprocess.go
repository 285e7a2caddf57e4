package ai

import (
	"strings"
	"unicode"
)

// Preprocess normalizes text before it is embedded at ingestion time:
// lowercase, punctuation stripped, whitespace-tokenized, stop-words
// removed, tokens re-joined with single spaces. The result is only handed
// to the embedding model, never displayed. An empty result means the text
// carries no signal and must not be embedded.
func Preprocess(text string) string {
	text = strings.ToLower(text)

	var cleaned strings.Builder
	cleaned.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			cleaned.WriteRune(r)
		}
	}

	tokens := strings.Fields(cleaned.String())
	kept := tokens[:0]
	for _, token := range tokens {
		if _, stop := stopwords[token]; stop {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

// stopwords is the Portuguese stop-word list the review corpus was indexed
// with. Kept in-process so preprocessing stays a pure function.
var stopwords = makeStopwordSet(`
	a à ao aos aquela aquelas aquele aqueles aquilo as às até com como da
	das de dela delas dele deles depois do dos e é ela elas ele eles em
	entre era eram éramos essa essas esse esses esta está estamos estão
	estar estas estava estavam estávamos este esteja estejam estejamos
	estes esteve estive estivemos estiver estivera estiveram estivéramos
	estiverem estivermos estivesse estivessem estivéssemos estou eu foi
	fomos for fora foram fôramos forem formos fosse fossem fôssemos fui há
	haja hajam hajamos hão havemos haver hei houve houvemos houver houvera
	houverá houveram houvéramos houverão houverei houverem houveremos
	houveria houveriam houveríamos houvermos houvesse houvessem
	houvéssemos isso isto já lhe lhes mais mas me mesmo meu meus minha
	minhas muito na não nas nem no nos nós nossa nossas nosso nossos num
	numa o os ou para pela pelas pelo pelos por qual quando que quem são se
	seja sejam sejamos sem ser será serão serei seremos seria seriam
	seríamos seu seus só somos sou sua suas também te tem tém temos tenha
	tenham tenhamos tenho terá terão terei teremos teria teriam teríamos
	teu teus teve tinha tinham tínhamos tive tivemos tiver tivera tiveram
	tivéramos tiverem tivermos tivesse tivessem tivéssemos tu tua tuas um
	uma você vocês vos
`)

func makeStopwordSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}
