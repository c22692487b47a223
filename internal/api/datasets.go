package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"medical-decision/backend/internal/dataset"
	"medical-decision/backend/internal/store"
	"medical-decision/backend/internal/util"
)

func (s *Server) handleUpload(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.renderError(c, http.StatusBadRequest, errors.New("dataset csv file is required"))
		} else {
			s.renderError(c, http.StatusBadRequest, err)
		}
		return
	}
	name := firstNonEmpty(c.PostForm("name"), strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename)))

	src, err := fileHeader.Open()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	defer src.Close()

	parsed, err := dataset.Parse(src)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if len(parsed.Rows) == 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("no valid opinion rows detected in csv"))
		return
	}

	timer := util.StartTimer()
	outcomes, err := dataset.DecideRows(c.Request.Context(), s.engine, parsed.Rows)
	if err != nil {
		logrus.WithError(err).WithField("file", fileHeader.Filename).Error("decide dataset rows")
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	ds := &store.Dataset{
		Name:             name,
		OriginalFilename: fileHeader.Filename,
		Mode:             s.engine.Mode(),
		Shots:            s.shots,
		RowCount:         parsed.RowCount,
		InvalidRows:      len(parsed.Invalid),
		ProcessingTimeMs: timer.ElapsedMs(),
	}
	if err := s.db.CreateDatasetWithDecisions(ds, dataset.Decisions(outcomes)); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	dto := DatasetFromModel(*ds)
	s.notifier.Broadcast(DecisionEvent{
		Type:      "dataset",
		DatasetID: ds.ID,
		Dataset:   &dto,
		Message:   fmt.Sprintf("decided %d of %d rows", ds.DecidedRows, ds.RowCount),
	})
	logrus.WithFields(logrus.Fields{
		"dataset_id": ds.ID,
		"rows":       ds.RowCount,
		"decided":    ds.DecidedRows,
		"invalid":    ds.InvalidRows,
		"elapsed_ms": ds.ProcessingTimeMs,
	}).Info("dataset decided")

	invalid := parsed.Invalid
	if invalid == nil {
		invalid = []dataset.RowError{}
	}
	c.JSON(http.StatusCreated, UploadResponse{Dataset: dto, Invalid: invalid})
}

func (s *Server) handleListDatasets(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	offset, limit := pagination(c, 25)

	rows, total, err := s.db.ListDatasets(offset, limit)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]DatasetDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, DatasetFromModel(row))
	}
	c.JSON(http.StatusOK, DatasetsResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetDataset(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	ds, ok := s.lookupDataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, DatasetFromModel(*ds))
}

func (s *Server) handleDatasetSummary(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	ds, ok := s.lookupDataset(c)
	if !ok {
		return
	}
	rows, err := s.db.DatasetDecisions(ds.ID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	summary, err := dataset.Summarize(rows)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{Dataset: DatasetFromModel(*ds), Summary: summary})
}

// lookupDataset resolves the :id parameter, rendering 400/404 on failure.
func (s *Server) lookupDataset(c *gin.Context) (*store.Dataset, bool) {
	datasetID, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return nil, false
	}
	ds, err := s.db.GetDataset(datasetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("dataset %d not found", datasetID))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	return ds, true
}

func (s *Server) handleResults(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	datasetID, err := datasetQuery(c)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	offset, limit := pagination(c, 100)

	rows, total, err := s.db.ListDecisions(store.DecisionQuery{
		DatasetID: datasetID,
		Decision:  c.Query("decision"),
		Sort:      c.Query("sort"),
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]DecisionDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	c.JSON(http.StatusOK, DecisionsResponse{Items: dtos, Total: total})
}

func (s *Server) handleExportCSV(c *gin.Context) {
	rows, ok := s.exportRows(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", "attachment; filename=decisions-export.csv")
	c.Header("Content-Type", "text/csv")
	if err := dataset.WriteCSV(c.Writer, rows); err != nil {
		logrus.WithError(err).Warn("write csv export")
	}
}

func (s *Server) handleExportJSON(c *gin.Context) {
	rows, ok := s.exportRows(c)
	if !ok {
		return
	}
	dtos := make([]DecisionDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	c.Header("Content-Disposition", "attachment; filename=decisions-export.json")
	c.JSON(http.StatusOK, dtos)
}

func (s *Server) exportRows(c *gin.Context) ([]store.Decision, bool) {
	if !s.requireHistory(c) {
		return nil, false
	}
	datasetID, err := datasetQuery(c)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return nil, false
	}
	sort := c.Query("sort")
	if datasetID > 0 && sort == "" {
		sort = "row_asc"
	}
	rows, _, err := s.db.ListDecisions(store.DecisionQuery{
		DatasetID: datasetID,
		Decision:  c.Query("decision"),
		Sort:      sort,
		Limit:     -1,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return nil, false
	}
	return rows, true
}
