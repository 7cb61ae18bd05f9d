package analyzer

import (
	"fmt"

	"github.com/pitchlab/pitchlab/internal/session"
)

// MessageCategory identifies which motivational message the dashboard shows.
type MessageCategory string

const (
	MessageExcellence MessageCategory = "excellence"
	MessageImproving  MessageCategory = "improving"
	MessagePlateau    MessageCategory = "plateau"
	MessageEarlyStage MessageCategory = "early_stage"
)

// ScoreBucket is the band the latest session score falls in.
type ScoreBucket string

const (
	BucketLow  ScoreBucket = "low"
	BucketMid  ScoreBucket = "mid"
	BucketHigh ScoreBucket = "high"
)

// BucketFor places a score into its band: high at or above the excellence
// score, mid at or above the plateau score, low otherwise.
func BucketFor(score int, opts Options) ScoreBucket {
	opts = opts.WithDefaults()
	switch {
	case score >= opts.ExcellenceScore:
		return BucketHigh
	case score >= opts.PlateauScore:
		return BucketMid
	default:
		return BucketLow
	}
}

type messageKey struct {
	improving bool
	bucket    ScoreBucket
}

var messageTable = map[messageKey]MessageCategory{
	{improving: true, bucket: BucketHigh}:  MessageExcellence,
	{improving: true, bucket: BucketMid}:   MessageImproving,
	{improving: true, bucket: BucketLow}:   MessageImproving,
	{improving: false, bucket: BucketHigh}: MessagePlateau,
	{improving: false, bucket: BucketMid}:  MessagePlateau,
	{improving: false, bucket: BucketLow}:  MessageEarlyStage,
}

// SelectMessage looks up the message category for a trend direction and the
// latest session score.
func SelectMessage(improving bool, lastScore int, opts Options) MessageCategory {
	return messageTable[messageKey{improving: improving, bucket: BucketFor(lastScore, opts)}]
}

var messageTemplates = map[MessageCategory]string{
	MessageExcellence: "Excellent ! Vous progressez et atteignez %d/100. Peaufinez maintenant : %s.",
	MessageImproving:  "Belle progression (%d/100) ! Concentrez-vous sur %s pour franchir un cap.",
	MessagePlateau:    "Bon niveau (%d/100), mais vos scores stagnent. Travaillez %s pour relancer votre progression.",
	MessageEarlyStage: "Chaque appel compte (%d/100). Commencez par renforcer %s.",
}

// RenderMessage fills the template for category with the latest score and
// the criterion to work on.
func RenderMessage(category MessageCategory, lastScore int, focus session.Criterion) string {
	tmpl, ok := messageTemplates[category]
	if !ok {
		return ""
	}
	return fmt.Sprintf(tmpl, lastScore, focus.Label())
}
