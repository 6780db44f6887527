package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/sngm3741/survey-manager-api/internal/survey/application"
	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

var (
	authorNames = []string{"sakura", "haruto", "yui", "sota", "mio", "riku", "hina", "yuto", "aoi", "ren", "koharu", "minato"}

	topics = []struct {
		category string
		titles   []string
	}{
		{"food", []string{"社食メニュー満足度調査", "ランチの好み", "おやつ選び"}},
		{"work", []string{"リモートワーク実態調査", "会議の多さについて", "オフィス環境アンケート"}},
		{"event", []string{"忘年会の日程", "社内勉強会の振り返り", "夏祭り参加意向"}},
		{"product", []string{"新機能フィードバック", "アプリの使い勝手", "料金プランの印象"}},
	}

	textPrompts   = []string{"ご意見をご自由にお書きください", "改善してほしい点は？", "一番印象に残ったことは？"}
	choicePrompts = []string{"どれが一番好きですか？", "参加できる曜日は？", "よく使う機能は？", "普段の通勤手段は？"}
	ratingPrompts = []string{"全体の満足度", "また参加したいですか", "おすすめ度"}
	choicePool    = []string{"月曜", "火曜", "水曜", "木曜", "金曜", "電車", "バス", "自転車", "徒歩", "カレー", "ラーメン", "寿司", "パスタ"}
)

// generateAuthors は重複しない作成者名を count 件返す。候補が足りない場合は連番を付ける。
func generateAuthors(rng *rand.Rand, count int) []string {
	names := pickUnique(rng, authorNames, count)
	for i := len(names); i < count; i++ {
		names = append(names, fmt.Sprintf("%s-%d", authorNames[i%len(authorNames)], i))
	}
	return names
}

// generateSurveys は作成者ごとに最低 1 件となるよう total 件の作成コマンドを組み立てる。
func generateSurveys(rng *rand.Rand, authors []string, total int) []application.CreateSurvey {
	if len(authors) == 0 {
		return nil
	}
	counts := distribute(total, len(authors), 1, total, rng)
	cmds := make([]application.CreateSurvey, 0, total)
	for i, author := range authors {
		for n := 0; n < counts[i]; n++ {
			cmds = append(cmds, randomSurvey(rng, author))
		}
	}
	rng.Shuffle(len(cmds), func(i, j int) { cmds[i], cmds[j] = cmds[j], cmds[i] })
	return cmds
}

func randomSurvey(rng *rand.Rand, author string) application.CreateSurvey {
	topic := topics[rng.Intn(len(topics))]
	questionCount := 1 + rng.Intn(5)
	questions := make([]domain.Question, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		questions = append(questions, randomQuestion(rng))
	}
	return application.CreateSurvey{
		Author:      author,
		Title:       topic.titles[rng.Intn(len(topic.titles))],
		Description: randomDescription(rng, author),
		Category:    topic.category,
		Questions:   questions,
	}
}

func randomQuestion(rng *rand.Rand) domain.Question {
	switch rng.Intn(4) {
	case 0:
		return domain.Question{Text: textPrompts[rng.Intn(len(textPrompts))], Kind: domain.QuestionText}
	case 1:
		return domain.Question{Text: ratingPrompts[rng.Intn(len(ratingPrompts))], Kind: domain.QuestionRating}
	case 2:
		return domain.Question{
			Text:    choicePrompts[rng.Intn(len(choicePrompts))],
			Kind:    domain.QuestionSingleChoice,
			Choices: pickUnique(rng, choicePool, 2+rng.Intn(4)),
		}
	default:
		return domain.Question{
			Text:    choicePrompts[rng.Intn(len(choicePrompts))],
			Kind:    domain.QuestionMultipleChoice,
			Choices: pickUnique(rng, choicePool, 2+rng.Intn(6)),
		}
	}
}

func randomDescription(rng *rand.Rand, author string) string {
	if rng.Intn(3) == 0 {
		return ""
	}
	parts := []string{author + " さんが作成したアンケートです。", "回答は匿名で集計されます。", "所要時間は 3 分ほどです。"}
	return strings.Join(parts[:1+rng.Intn(len(parts))], " ")
}

func distribute(total, buckets, minPerBucket, maxPerBucket int, rng *rand.Rand) []int {
	if buckets <= 0 {
		return nil
	}
	if maxPerBucket < minPerBucket {
		maxPerBucket = minPerBucket
	}
	counts := make([]int, buckets)
	for i := range counts {
		counts[i] = minPerBucket
	}
	remaining := total - minPerBucket*buckets
	for remaining > 0 {
		i := rng.Intn(buckets)
		if counts[i] >= maxPerBucket {
			continue
		}
		counts[i]++
		remaining--
	}
	return counts
}

func pickUnique(rng *rand.Rand, source []string, count int) []string {
	if count >= len(source) {
		cp := make([]string, len(source))
		copy(cp, source)
		return cp
	}
	seen := make(map[int]struct{}, count)
	result := make([]string, 0, count)
	for len(result) < count {
		idx := rng.Intn(len(source))
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		result = append(result, source[idx])
	}
	return result
}
