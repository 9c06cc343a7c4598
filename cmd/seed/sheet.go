package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	"github.com/xuri/excelize/v2"
)

// 고객 시트 컬럼: 이름, 유형, 연락처, 이메일, 메모
const customerColumns = 5

// 매물 시트 컬럼: 매물명, 주소, 상세주소, 거래유형, 매매가, 보증금, 월세, 면적, 설명, 소유자 고객 ID
const propertyColumns = 10

type customerRow struct {
	line  int
	input service.CustomerInput
}

type propertyRow struct {
	line  int
	input service.PropertyInput
}

var customerTypes = map[string]model.CustomerType{
	"매수인": model.CustomerTypeBuyer,
	"매도인": model.CustomerTypeSeller,
	"임차인": model.CustomerTypeOccupant,
	"입주자": model.CustomerTypeOccupant,
	"기타":  model.CustomerTypeOther,
}

var propertyTypes = map[string]model.PropertyType{
	"매매": model.PropertyTypeSale,
	"월세": model.PropertyTypeMonthly,
	"전세": model.PropertyTypeJeonse,
}

func readRows(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}
	return rows, nil
}

// cell 은 짧은 행(뒤쪽 빈 셀 생략)도 안전하게 읽는다
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseAmount(v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", v)
	}
	return &n, nil
}

func readCustomersFromXLSX(filePath string) ([]customerRow, error) {
	rows, err := readRows(filePath)
	if err != nil {
		return nil, err
	}
	return parseCustomerRows(rows), nil
}

func parseCustomerRows(rows [][]string) []customerRow {
	var result []customerRow
	seen := make(map[string]bool) // 이름+연락처 중복 제거
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		name := cell(row, 0)
		if name == "" {
			skipped++
			continue
		}
		phone := cell(row, 2)
		key := name + "|" + phone
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		input := service.CustomerInput{
			Name:  &name,
			Phone: optionalString(phone),
			Email: optionalString(cell(row, 3)),
			Memo:  optionalString(cell(row, 4)),
		}
		if t, ok := customerTypes[cell(row, 1)]; ok {
			input.Type = &t
		} else if raw := model.CustomerType(strings.ToLower(cell(row, 1))); raw != "" {
			input.Type = &raw
		}

		result = append(result, customerRow{line: i + 1, input: input})
	}

	fmt.Printf("Valid customers: %d, skipped rows: %d\n", len(result), skipped)
	return result
}

func readPropertiesFromXLSX(filePath string) ([]propertyRow, error) {
	rows, err := readRows(filePath)
	if err != nil {
		return nil, err
	}
	return parsePropertyRows(rows), nil
}

func parsePropertyRows(rows [][]string) []propertyRow {
	var result []propertyRow
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		title := cell(row, 0)
		address := cell(row, 1)
		propertyType, ok := propertyTypes[cell(row, 3)]
		if title == "" || address == "" || !ok {
			skipped++
			continue
		}

		input := service.PropertyInput{
			Title:         &title,
			Address:       &address,
			AddressDetail: optionalString(cell(row, 2)),
			Type:          &propertyType,
			Description:   optionalString(cell(row, 8)),
		}

		var err error
		if input.Price, err = parseAmount(cell(row, 4)); err != nil {
			skipped++
			continue
		}
		if input.Deposit, err = parseAmount(cell(row, 5)); err != nil {
			skipped++
			continue
		}
		if input.MonthlyRent, err = parseAmount(cell(row, 6)); err != nil {
			skipped++
			continue
		}
		if v := cell(row, 7); v != "" {
			area, err := strconv.ParseFloat(v, 64)
			if err != nil {
				skipped++
				continue
			}
			input.Area = &area
		}
		if v := cell(row, 9); v != "" {
			id, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				skipped++
				continue
			}
			ownerID := uint(id)
			input.OwnerID = &ownerID
		}

		result = append(result, propertyRow{line: i + 1, input: input})
	}

	fmt.Printf("Valid properties: %d, skipped rows: %d\n", len(result), skipped)
	return result
}
