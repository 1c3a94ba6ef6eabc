// Package importer 从 CSV 批量导入分类、标签、技能、技术与履历数据。
// 每行单独提交事务，失败的行计数后继续处理后续行。
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aurafolio/internal/db"
	"gorm.io/gorm"
)

var (
	ErrUnknownModel  = errors.New("unknown import model")
	ErrEmptyFile     = errors.New("csv file is empty")
	ErrMissingColumn = errors.New("csv is missing a required column")
)

const utf8BOM = "\ufeff"

// Options 控制导入行为。
type Options struct {
	// UpdateExisting 为 false 时已存在的记录计为跳过。
	UpdateExisting bool
}

// RowError 描述单行失败原因，Line 为 CSV 中的行号（表头为第 1 行）。
type RowError struct {
	Line    int
	Message string
}

// Result 汇总一次导入。
type Result struct {
	Model   string
	Created int
	Updated int
	Skipped int
	Failed  int
	Errors  []RowError
}

// Summary 返回面向用户的汇总信息。
func (r *Result) Summary() string {
	message := fmt.Sprintf("导入完成：新增 %d 条，更新 %d 条，跳过 %d 条", r.Created, r.Updated, r.Skipped)
	if r.Failed > 0 {
		message += fmt.Sprintf("，失败 %d 条", r.Failed)
	}
	return message
}

// RowRecorder 接收导入结果计数，如 Prometheus 指标。
type RowRecorder interface {
	ImportRows(model string, created, updated, skipped, failed int)
}

// Row 是一行数据，键为规范化后的表头。
type Row map[string]string

// Has 判断表头中是否包含该列。
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Get 返回去除首尾空白的值。
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeSkipped
)

type modelSpec interface {
	requiredColumns() []string
	importRow(tx *gorm.DB, row Row, update bool) (outcome, error)
}

// Importer 持有已注册的可导入模型。
type Importer struct {
	db       *gorm.DB
	specs    map[string]modelSpec
	recorder RowRecorder
	logger   *slog.Logger
}

// New 创建 Importer，recorder 与 logger 可以为 nil。
func New(gdb *gorm.DB, recorder RowRecorder, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: gdb, specs: defaultSpecs(), recorder: recorder, logger: logger}
}

// Models 返回可导入的模型名称。
func (i *Importer) Models() []string {
	names := make([]string, 0, len(i.specs))
	for name := range i.specs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run 导入 reader 中的 CSV。表头错误或模型未知时返回 error，单行失败只记录在 Result 中。
func (i *Importer) Run(ctx context.Context, model string, reader io.Reader, opts Options) (*Result, error) {
	model = strings.ToLower(strings.TrimSpace(model))
	spec, ok := i.specs[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := normalizeHeader(header)
	for _, required := range spec.requiredColumns() {
		if !slices.Contains(columns, required) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	result := &Result{Model: model}
	line := 1
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.fail(line, err)
			continue
		}
		if err != nil {
			return result, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		row := make(Row, len(columns))
		for idx, column := range columns {
			if column == "" {
				continue
			}
			if idx < len(record) {
				row[column] = record[idx]
			} else {
				row[column] = ""
			}
		}

		var rowOutcome outcome
		err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			rowOutcome, err = spec.importRow(tx, row, opts.UpdateExisting)
			return err
		})
		if err != nil {
			result.fail(line, err)
			continue
		}

		switch rowOutcome {
		case outcomeCreated:
			result.Created++
		case outcomeUpdated:
			result.Updated++
		case outcomeSkipped:
			result.Skipped++
		}
	}

	if i.recorder != nil {
		i.recorder.ImportRows(model, result.Created, result.Updated, result.Skipped, result.Failed)
	}
	i.logger.Info("csv import finished",
		"model", model,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (r *Result) fail(line int, err error) {
	r.Failed++
	message := err.Error()
	if db.IsDuplicate(err) {
		message = "与已有记录冲突"
	}
	r.Errors = append(r.Errors, RowError{Line: line, Message: message})
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for idx, raw := range header {
		if idx == 0 {
			raw = strings.TrimPrefix(raw, utf8BOM)
		}
		column := strings.ToLower(strings.TrimSpace(raw))
		column = strings.Join(strings.Fields(column), "_")
		columns[idx] = column
	}
	return columns
}

func blank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
