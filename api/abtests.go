package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/content-engine/abtest"
	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/store"
)

func (s *Server) saveVariant(c *gin.Context) {
	var rec store.VariantRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, "Invalid variant record")
		return
	}
	if err := s.repo.SaveVariant(c.Request.Context(), c.Param("id"), rec); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) analyzeTest(c *gin.Context) {
	id := c.Param("id")
	t, ok, err := s.repo.Variants(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !ok {
		s.respondError(c, fmt.Errorf("no a/b test %q: %w", id, engineerr.ErrNotFound))
		return
	}

	results, err := abtest.AnalyzeTest(abtest.Options{
		TestID:          t.ID,
		Variants:        t.Variants,
		StartDate:       t.StartDate,
		ConfidenceLevel: s.engine.ABTest.ConfidenceLevel,
		MinSampleSize:   s.engine.ABTest.MinSampleSize,
	}, s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// queryFloat parses an optional float query parameter.
func queryFloat(c *gin.Context, name string, def float64) (float64, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number: %w", name, v, engineerr.ErrInvalidInput)
	}
	return f, nil
}

func (s *Server) sampleSize(c *gin.Context) {
	var baseline, mde, alpha, power float64
	for _, p := range []struct {
		name string
		def  float64
		dst  *float64
	}{
		{"baseline", 0, &baseline},
		{"mde", 0, &mde},
		{"alpha", 0.05, &alpha},
		{"power", 0.8, &power},
	} {
		v, err := queryFloat(c, p.name, p.def)
		if err != nil {
			s.respondError(c, err)
			return
		}
		*p.dst = v
	}

	n, err := abtest.CalculateRequiredSampleSize(baseline, mde, alpha, power)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"baseline":          baseline,
		"mde":               mde,
		"alpha":             alpha,
		"power":             power,
		"samplePerVariant":  n,
		"totalSampleNeeded": n * 2,
	})
}
