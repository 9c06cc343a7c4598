package main

import (
	"path/filepath"
	"testing"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCustomerRows(t *testing.T) {
	rows := [][]string{
		{"이름", "유형", "연락처", "이메일", "메모"},
		{"홍길동", "매수인", "010-1234-5678", "hong@example.com"},
		{"홍길동", "매수인", "010-1234-5678"},
		{"", "매도인", "010-0000-0000"},
		{"김임차", "occupant"},
		{"이기타", "알수없음", "", "", "메모"},
	}

	result := parseCustomerRows(rows)
	require.Len(t, result, 3)

	assert.Equal(t, 2, result[0].line)
	assert.Equal(t, "홍길동", *result[0].input.Name)
	assert.Equal(t, model.CustomerTypeBuyer, *result[0].input.Type)
	assert.Equal(t, "hong@example.com", *result[0].input.Email)
	assert.Nil(t, result[0].input.Memo)

	assert.Equal(t, model.CustomerTypeOccupant, *result[1].input.Type)
	assert.Nil(t, result[1].input.Phone)

	// 모르는 유형은 그대로 넘겨 서비스 검증에 맡긴다
	assert.Equal(t, model.CustomerType("알수없음"), *result[2].input.Type)
	assert.Equal(t, "메모", *result[2].input.Memo)
}

func TestParsePropertyRows(t *testing.T) {
	rows := [][]string{
		{"매물명", "주소", "상세주소", "거래유형", "매매가", "보증금", "월세", "면적", "설명", "소유자"},
		{"강남 아파트", "서울 강남구 테헤란로 1", "101동 1001호", "매매", "1,200,000,000", "", "", "84.5", "남향", "7"},
		{"역삼 원룸", "서울 강남구 역삼동", "", "월세", "", "10000000", "700000"},
		{"주소 없음", "", "", "전세"},
		{"유형 오류", "서울", "", "임대"},
		{"금액 오류", "서울", "", "매매", "일억"},
		{"소유자 오류", "서울", "", "매매", "", "", "", "", "", "abc"},
	}

	result := parsePropertyRows(rows)
	require.Len(t, result, 2)

	sale := result[0].input
	assert.Equal(t, model.PropertyTypeSale, *sale.Type)
	assert.Equal(t, int64(1200000000), *sale.Price)
	assert.Nil(t, sale.Deposit)
	assert.InDelta(t, 84.5, *sale.Area, 0.001)
	assert.Equal(t, uint(7), *sale.OwnerID)
	assert.Equal(t, "101동 1001호", *sale.AddressDetail)

	monthly := result[1].input
	assert.Equal(t, 3, result[1].line)
	assert.Equal(t, model.PropertyTypeMonthly, *monthly.Type)
	assert.Equal(t, int64(10000000), *monthly.Deposit)
	assert.Equal(t, int64(700000), *monthly.MonthlyRent)
	assert.Nil(t, monthly.OwnerID)
}

func TestReadCustomersFromXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"이름", "유형", "연락처"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"박매도", "매도인", "010-9999-8888"}))

	path := filepath.Join(t.TempDir(), "customers.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	result, err := readCustomersFromXLSX(path)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, model.CustomerTypeSeller, *result[0].input.Type)
	assert.Equal(t, "010-9999-8888", *result[0].input.Phone)

	_, err = readCustomersFromXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
