package api

import (
	"errors"
	"quizmatch/internal/adapter/catalog"
	"quizmatch/internal/domain/entity"
	"quizmatch/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	HeaderSource         = "X-Recommendation-Source"
	HeaderFallbackReason = "X-Recommendation-Fallback-Reason"
	HeaderCacheHit       = "X-Recommendation-Cache-Hit"
	HeaderClientID       = "X-Client-ID"
)

type recommendRequest struct {
	Answers   []entity.QuizAnswer   `json:"answers"`
	Products  []entity.Product      `json:"products"`
	Config    entity.GeminiConfig   `json:"config"`
	Questions []entity.QuizQuestion `json:"questions"`
}

type localeRecommendRequest struct {
	Answers []entity.QuizAnswer `json:"answers"`
}

type matchRequest struct {
	Answers []entity.QuizAnswer `json:"answers"`
	Limit   *int                `json:"limit"`
}

type matchResponse struct {
	Locale    string                 `json:"locale"`
	Matches   []entity.ScoredProduct `json:"matches"`
	NoMatches bool                   `json:"noMatches"`
}

// quizResponse is the locale view handed to the UI; the gemini block stays server-side.
type quizResponse struct {
	Locale           string                   `json:"locale"`
	AvailableLocales []string                 `json:"availableLocales"`
	General          entity.GeneralConfig     `json:"general"`
	WelcomePage      entity.WelcomePageConfig `json:"welcomePage"`
	ResultPage       entity.ResultPageConfig  `json:"resultPage"`
	Questions        []entity.QuizQuestion    `json:"questions"`
	Products         []entity.Product         `json:"products"`
}

type QuizHandler struct {
	recommender *usecase.Recommender
	catalog     *catalog.Catalog
	logger      *zap.Logger
}

func NewQuizHandler(rec *usecase.Recommender, cat *catalog.Catalog, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{recommender: rec, catalog: cat, logger: logger}
}

// HandleRecommend serves a caller-supplied catalog and gemini config.
func (h *QuizHandler) HandleRecommend(c *fiber.Ctx) error {
	var req recommendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	return h.recommend(c, entity.RecommendRequest{
		ClientID:  clientID(c),
		Answers:   req.Answers,
		Products:  req.Products,
		Questions: req.Questions,
		Config:    req.Config,
	})
}

// HandleLocaleRecommend serves the server-side catalog of a locale.
func (h *QuizHandler) HandleLocaleRecommend(c *fiber.Ctx) error {
	var req localeRecommendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	cfg, locale := h.catalog.Locale(c.Params("locale"))
	return h.recommend(c, entity.RecommendRequest{
		ClientID:  clientID(c),
		Locale:    locale,
		Answers:   req.Answers,
		Products:  cfg.Products,
		Questions: cfg.Questions,
		Config:    cfg.GeminiOrDisabled(),
	})
}

func (h *QuizHandler) recommend(c *fiber.Ctx, req entity.RecommendRequest) error {
	result, err := h.recommender.Recommend(c.UserContext(), req)
	if err != nil {
		return h.mapError(c, err)
	}

	c.Set(HeaderSource, string(result.Source))
	if result.FallbackReason != "" {
		c.Set(HeaderFallbackReason, string(result.FallbackReason))
	}
	c.Set(HeaderCacheHit, "false")
	if result.Cached {
		c.Set(HeaderCacheHit, "true")
	}
	return c.Status(fiber.StatusOK).JSON(result.Recommendation)
}

// HandleMatch runs the direct-rule engine against the locale's product conditions.
func (h *QuizHandler) HandleMatch(c *fiber.Ctx) error {
	var req matchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	limit := usecase.DefaultRuleLimit
	if req.Limit != nil {
		if *req.Limit < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must not be negative"})
		}
		limit = *req.Limit
	}

	cfg, locale := h.catalog.Locale(c.Params("locale"))
	matches, err := usecase.MatchAnswers(cfg.Questions, req.Answers, cfg.Products, limit)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(matchResponse{
		Locale:    locale,
		Matches:   matches,
		NoMatches: len(matches) == 0,
	})
}

func (h *QuizHandler) HandleQuiz(c *fiber.Ctx) error {
	cfg, locale := h.catalog.Locale(c.Params("locale"))
	return c.Status(fiber.StatusOK).JSON(quizResponse{
		Locale:           locale,
		AvailableLocales: h.catalog.Locales(),
		General:          cfg.Configuration.General,
		WelcomePage:      cfg.Configuration.WelcomePage,
		ResultPage:       cfg.Configuration.ResultPage,
		Questions:        cfg.Questions,
		Products:         cfg.Products,
	})
}

// mapError maps business errors to HTTP status codes.
func (h *QuizHandler) mapError(c *fiber.Ctx, err error) error {
	if errors.Is(err, entity.ErrInvalidRequest) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	h.logger.Error("unexpected handler error", zap.Error(err), zap.String("path", c.Path()))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func clientID(c *fiber.Ctx) string {
	if id := c.Get(HeaderClientID); id != "" {
		return id
	}
	return c.IP()
}
