package controllers

import (
	"fmt"
	"net/http"
	"time"

	"ormperfapi/models"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

var (
	headerStyleJSON = `
	{
		"border": [
			{"type": "left", "color": "#000000", "style": 1},
			{"type": "top", "color": "#000000", "style": 1},
			{"type": "right", "color": "#000000", "style": 1},
			{"type": "bottom", "color": "#000000", "style": 1}
		],
		"fill": {"type": "pattern", "pattern": 1, "color": ["#96b753"]},
		"font": {"bold": true},
		"alignment": {"shrink_to_fit": true, "horizontal": "center"}
	}
	`
	dataStyleJSON = `
	{
		"border": [
			{"type": "left", "color": "#000000", "style": 1},
			{"type": "top", "color": "#000000", "style": 1},
			{"type": "right", "color": "#000000", "style": 1},
			{"type": "bottom", "color": "#000000", "style": 1}
		],
		"fill": {"type": "pattern", "pattern": 1},
		"alignment": {"shrink_to_fit": true}
	}
	`
)

const exportSheet = "List Products"

func handleExcelProducts(c *gin.Context, products []models.Product) {
	if len(products) == 0 {
		sendError(c, http.StatusNotFound, "products-not-found")
		return
	}

	f, err := productWorkbook(products)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	fileName := fmt.Sprintf("report_products_%s.xlsx", time.Now().UTC().Format("20060102_150405"))

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment;filename=\""+fileName+"\"")
	c.Status(http.StatusOK)

	if _, err := f.WriteTo(c.Writer); err != nil {
		c.Error(err)
	}
}

func productWorkbook(products []models.Product) (*excelize.File, error) {
	f := excelize.NewFile()
	f.NewSheet(exportSheet)
	// delete default sheet
	f.DeleteSheet("Sheet1")

	if err := f.SetColWidth(exportSheet, "A", "F", 25); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(headerStyleJSON)
	if err != nil {
		return nil, err
	}

	dataStyle, err := f.NewStyle(dataStyleJSON)
	if err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return nil, err
	}

	header := []interface{}{
		excelize.Cell{StyleID: headerStyle, Value: "ID"},
		excelize.Cell{StyleID: headerStyle, Value: "Category"},
		excelize.Cell{StyleID: headerStyle, Value: "Name"},
		excelize.Cell{StyleID: headerStyle, Value: "Price"},
		excelize.Cell{StyleID: headerStyle, Value: "Status"},
		excelize.Cell{StyleID: headerStyle, Value: "Created At"},
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	for n, p := range products {
		category := "-"
		if p.Category != nil {
			category = p.Category.Name
		}

		row := []interface{}{
			excelize.Cell{StyleID: dataStyle, Value: p.ID},
			excelize.Cell{StyleID: dataStyle, Value: category},
			excelize.Cell{StyleID: dataStyle, Value: p.Name},
			excelize.Cell{StyleID: dataStyle, Value: humanize.Commaf(p.Price.Round(2).InexactFloat64())},
			excelize.Cell{StyleID: dataStyle, Value: string(p.Status)},
			excelize.Cell{StyleID: dataStyle, Value: p.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
		}

		cell, _ := excelize.CoordinatesToCellName(1, n+2)
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, err
	}
	return f, nil
}
