package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
)

const (
	maxReportDays     = 92
	defaultReportDays = 30
	// A day is on target when calories are within this fraction of the goal.
	onTargetTolerance = 0.10
)

//go:embed templates/report.html
var reportFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html").Funcs(template.FuncMap{"decimal": formatDecimal}).
		ParseFS(reportFS, "templates/report.html"))

// nutritionReport is everything a rendered report shows. Averages only cover
// days with at least one meal; HasData is false when there are none.
type nutritionReport struct {
	UserName     string
	StartDate    string
	EndDate      string
	GeneratedAt  string
	Goals        nutritionGoals
	Days         []dayTotals
	HasData      bool
	DaysLogged   int
	DaysOnTarget int
	AvgCalories  int
	AvgProtein   float64
	AvgCarbs     float64
	AvgFat       float64
}

// exportRequest is the request body for POST /api/export/pdf.
type exportRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// buildReport summarizes history for [start, end]. It has no side effects.
func buildReport(u user, history []dayTotals, start, end string, now time.Time) nutritionReport {
	r := nutritionReport{
		UserName:    u.Name,
		StartDate:   start,
		EndDate:     end,
		GeneratedAt: now.Format("02/01/2006 15:04"),
		Goals:       u.goals(),
		Days:        []dayTotals{},
	}
	if r.UserName == "" {
		r.UserName = u.Username
	}

	var cal, protein, carbs, fat float64
	for _, d := range history {
		if d.MealCount == 0 {
			continue
		}
		r.Days = append(r.Days, d)
		cal += float64(d.Calories)
		protein += d.Protein
		carbs += d.Carbs
		fat += d.Fat
		if r.Goals.Calories > 0 && math.Abs(float64(d.Calories-r.Goals.Calories)) <= onTargetTolerance*float64(r.Goals.Calories) {
			r.DaysOnTarget++
		}
	}

	r.DaysLogged = len(r.Days)
	if r.DaysLogged == 0 {
		return r
	}
	n := float64(r.DaysLogged)
	r.HasData = true
	r.AvgCalories = int(math.Round(cal / n))
	r.AvgProtein = round1(protein / n)
	r.AvgCarbs = round1(carbs / n)
	r.AvgFat = round1(fat / n)
	return r
}

// renderReportHTML renders r with the embedded template.
func renderReportHTML(r nutritionReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("render report html: %w", err)
	}
	return buf.Bytes(), nil
}

// renderReportPDF lays r out as an A4 PDF using the core Helvetica font.
func renderReportPDF(r nutritionReport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Relatório nutricional", true)
	pdf.SetCreator("Nutria", true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(46, 125, 50)
	pdf.CellFormat(0, 10, tr("Relatório nutricional"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s · %s a %s · gerado em %s", r.UserName, r.StartDate, r.EndDate, r.GeneratedAt)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetTextColor(30, 30, 30)
	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}

	section("Metas diárias")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%d kcal · %d g proteína · %d g carboidratos · %d g gordura",
		r.Goals.Calories, r.Goals.Protein, r.Goals.Carbs, r.Goals.Fat)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	section("Médias do período")
	if !r.HasData {
		pdf.SetTextColor(130, 130, 130)
		pdf.CellFormat(0, 12, tr("Sem dados para o período selecionado."), "1", 1, "C", false, 0, "")
		return pdfBytes(pdf)
	}
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Calorias: %d kcal · Proteínas: %s g · Carboidratos: %s g · Gorduras: %s g",
		r.AvgCalories, formatDecimal(r.AvgProtein), formatDecimal(r.AvgCarbs), formatDecimal(r.AvgFat))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%d dia(s) com registro · %d dia(s) dentro da meta calórica", r.DaysLogged, r.DaysOnTarget)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	section("Dia a dia")
	headers := []string{"Data", "Calorias", "Proteínas (g)", "Carboidratos (g)", "Gorduras (g)", "Refeições"}
	widths := []float64{45, 25, 28, 32, 27, 23}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(241, 248, 233)
	for i, hd := range headers {
		pdf.CellFormat(widths[i], 7, tr(hd), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, d := range r.Days {
		cells := []string{
			d.Date + " " + shortWeekday(d.Weekday),
			strconv.Itoa(d.Calories),
			formatDecimal(d.Protein),
			formatDecimal(d.Carbs),
			formatDecimal(d.Fat),
			strconv.Itoa(d.MealCount),
		}
		for i, v := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdfBytes(pdf)
}

func pdfBytes(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// formatDecimal prints v with one decimal and a comma separator.
func formatDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 1, 64), ".", ",", 1)
}

func shortWeekday(name string) string {
	r := []rune(name)
	if len(r) <= 3 {
		return name
	}
	return "(" + string(r[:3]) + ")"
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// exportPDF handles POST /api/export/pdf {startDate, endDate}.
func (h *Handler) exportPDF(c *gin.Context) {
	var body exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			apiError(c, http.StatusBadRequest, "corpo da requisição inválido")
			return
		}
	}
	h.sendReportPDF(c, body.StartDate, body.EndDate)
}

// nutritionReportPDF handles GET /api/reports/nutrition-pdf?start=&end=.
func (h *Handler) nutritionReportPDF(c *gin.Context) {
	h.sendReportPDF(c, c.Query("start"), c.Query("end"))
}

// nutritionReportHTML handles GET /api/reports/nutrition-html?start=&end=.
func (h *Handler) nutritionReportHTML(c *gin.Context) {
	r, err := h.loadReport(c, c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err, "falha ao gerar relatório")
		return
	}
	html, err := renderReportHTML(r)
	if err != nil {
		respondError(c, err, "falha ao gerar relatório")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *Handler) sendReportPDF(c *gin.Context, start, end string) {
	r, err := h.loadReport(c, start, end)
	if err != nil {
		respondError(c, err, "falha ao gerar relatório")
		return
	}
	doc, err := renderReportPDF(r)
	if err != nil {
		respondError(c, err, "falha ao gerar relatório")
		return
	}
	filename := fmt.Sprintf("relatorio-nutricional-%s-%s.pdf", r.StartDate, r.EndDate)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

// loadReport validates the window (default: last 30 days), refreshes the
// daily rollups inside it and builds the report.
func (h *Handler) loadReport(c *gin.Context, start, end string) (nutritionReport, error) {
	if end == "" {
		end = h.days.today()
	}
	if start == "" {
		start = shiftDay(end, -(defaultReportDays - 1))
	}
	s, err := h.days.parse(start)
	if err != nil {
		return nutritionReport{}, err
	}
	e, err := h.days.parse(end)
	if err != nil {
		return nutritionReport{}, err
	}
	if e.Before(s) {
		return nutritionReport{}, invalid("a data inicial deve ser anterior à data final")
	}
	n := int(e.Sub(s).Hours()/24+0.5) + 1
	if n > maxReportDays {
		return nutritionReport{}, invalid("o período máximo do relatório é de %d dias", maxReportDays)
	}

	userID := currentUserID(c)
	u, err := h.users.userByID(c, userID)
	if err != nil {
		return nutritionReport{}, err
	}
	days, err := h.agg.dayList(c, userID, start, n)
	if err != nil {
		return nutritionReport{}, err
	}
	return buildReport(u, days, start, end, time.Now().In(h.days.loc)), nil
}
