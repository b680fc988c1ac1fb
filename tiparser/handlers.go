package tiparser

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TriggerSyncHandler runs a fetch pass synchronously: the whole active-case
// set by default, a single case when the body names one.
func TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TriggerSyncRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		caseNumber := strings.TrimSpace(req.CaseNumber)
		var (
			stats SyncStats
			err   error
		)
		if caseNumber != "" {
			stats, err = SyncCaseByNumber(c.Request.Context(), caseNumber)
		} else {
			stats, err = SyncAllCases(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
