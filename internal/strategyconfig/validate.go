package strategyconfig

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError 검증 실패 (스코어링 시작 전 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// 필드 단위 제약 (struct tag) 검증기. validator.Validate 는 동시 사용 안전
var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	// 에러 필드명을 YAML 키로 표시
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks all required constraints
// 1단계: struct tag (범위), 2단계: 필드 간 제약 (가중치 합, 구간 순서)
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationError{"config", "required"}
	}

	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return ValidationError{
				Field:   strings.TrimPrefix(fe.Namespace(), "Config."),
				Message: describeTag(fe),
			}
		}
		return ValidationError{"config", err.Error()}
	}

	// === Factors ===
	if math.Abs(cfg.Factors.Sum()-100) > 1e-9 {
		return ValidationError{"factors", fmt.Sprintf("maxima must sum to 100, got %.4f", cfg.Factors.Sum())}
	}

	// === PriceMomentum ===
	if err := validateWeightsSum(cfg.PriceMomentum.Weights.Slice(), 1.0, 1e-6); err != nil {
		return ValidationError{"price_momentum.weights", err.Error()}
	}

	// === Technical ===
	if cfg.Technical.BetaMin > cfg.Technical.BetaMax {
		return ValidationError{"technical", "beta_min must be <= beta_max"}
	}

	// === Stability ===
	if cfg.Stability.OptimalMin > cfg.Stability.OptimalMax {
		return ValidationError{"stability", "optimal_min must be <= optimal_max"}
	}

	// === Confidence ===
	if err := validateWeightsSum(cfg.Confidence.Weights.Slice(), 1.0, 1e-6); err != nil {
		return ValidationError{"confidence.weights", err.Error()}
	}

	// 구간은 min_cap 내림차순, 이름 중복 불가
	seen := make(map[string]bool, len(cfg.Confidence.Tiers))
	for i, tier := range cfg.Confidence.Tiers {
		if seen[tier.Name] {
			return ValidationError{
				Field:   fmt.Sprintf("confidence.market_cap_tiers[%d].name", i),
				Message: fmt.Sprintf("duplicate tier %q", tier.Name),
			}
		}
		seen[tier.Name] = true

		if i > 0 && tier.MinCap >= cfg.Confidence.Tiers[i-1].MinCap {
			return ValidationError{
				Field:   fmt.Sprintf("confidence.market_cap_tiers[%d].min_cap", i),
				Message: fmt.Sprintf("must be < previous tier min_cap=%.0f", cfg.Confidence.Tiers[i-1].MinCap),
			}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	t := cfg.Technical
	if sum := t.AboveEMA50Points + t.AboveEMA200Points + t.EMAAlignPoints + t.BetaPoints; sum > cfg.Factors.Technical {
		warnings = append(warnings, Warning{
			Code:    "TECHNICAL_CLAMPED",
			Message: fmt.Sprintf("technical gate points %.1f exceed max %.1f: 상한에서 잘림", sum, cfg.Factors.Technical),
		})
	}

	b := cfg.Breakout
	if b.PositionPoints+b.NewHighBonus > cfg.Factors.Breakout {
		warnings = append(warnings, Warning{
			Code:    "BREAKOUT_CLAMPED",
			Message: "position_points + new_high_bonus exceed breakout max",
		})
	}

	s := cfg.Stability
	if s.NeutralATRPct >= s.OptimalMin && s.NeutralATRPct <= s.OptimalMax {
		warnings = append(warnings, Warning{
			Code:    "NEUTRAL_ATR_IN_BAND",
			Message: "neutral_atr_pct inside optimal band: ATR 누락 종목이 보너스를 받음",
		})
	}

	if cfg.Confidence.Earnings.NearScore > cfg.Confidence.Earnings.FarScore {
		warnings = append(warnings, Warning{
			Code:    "EARNINGS_INVERTED",
			Message: "near_score > far_score: 실적 임박 종목의 신뢰도가 더 높음",
		})
	}

	if len(cfg.Confidence.Index.Recognized) == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_RECOGNIZED_INDEX",
			Message: "recognized index list is empty",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gt":
		return "must be > " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
