package chart

import "github.com/ledgerline-dev/ledgerline/internal/model"

// DefaultChart returns the starter chart of accounts for a new company: the
// standard asset/liability/equity/revenue/expense mains with the sub accounts
// the dashboard screens expect (cash boxes, banks, customers, suppliers).
func DefaultChart() []model.Account {
	return []model.Account{
		{ID: 1, Code: "1", NameAr: "الأصول", NameEn: "Assets", Level: model.LevelMain, Nature: model.NatureDebit},
		{ID: 2, Code: "101", NameAr: "الصندوق", NameEn: "Cash Box", ParentID: 1, Level: model.LevelSub, Nature: model.NatureDebit},
		{ID: 3, Code: "102", NameAr: "البنك", NameEn: "Bank", ParentID: 1, Level: model.LevelSub, Nature: model.NatureDebit},
		{ID: 4, Code: "103", NameAr: "العملاء", NameEn: "Customers", ParentID: 1, Level: model.LevelMain, Nature: model.NatureDebit},
		{ID: 5, Code: "104", NameAr: "حساب التحويل", NameEn: "Exchange Transit", ParentID: 1, Level: model.LevelSub, Nature: model.NatureDebit},
		{ID: 6, Code: "2", NameAr: "الخصوم", NameEn: "Liabilities", Level: model.LevelMain, Nature: model.NatureCredit},
		{ID: 7, Code: "201", NameAr: "الموردون", NameEn: "Suppliers", ParentID: 6, Level: model.LevelMain, Nature: model.NatureCredit},
		{ID: 8, Code: "3", NameAr: "حقوق الملكية", NameEn: "Equity", Level: model.LevelMain, Nature: model.NatureCredit},
		{ID: 9, Code: "301", NameAr: "رأس المال", NameEn: "Capital", ParentID: 8, Level: model.LevelSub, Nature: model.NatureCredit},
		{ID: 10, Code: "4", NameAr: "الإيرادات", NameEn: "Revenue", Level: model.LevelMain, Nature: model.NatureCredit},
		{ID: 11, Code: "401", NameAr: "إيرادات المبيعات", NameEn: "Sales Revenue", ParentID: 10, Level: model.LevelSub, Nature: model.NatureCredit},
		{ID: 12, Code: "5", NameAr: "المصروفات", NameEn: "Expenses", Level: model.LevelMain, Nature: model.NatureDebit},
		{ID: 13, Code: "501", NameAr: "مصروفات التشغيل", NameEn: "Operating Expenses", ParentID: 12, Level: model.LevelSub, Nature: model.NatureDebit},
		{ID: 14, Code: "502", NameAr: "مصروفات التوصيل", NameEn: "Delivery Expenses", ParentID: 12, Level: model.LevelSub, Nature: model.NatureDebit},
	}
}

// DefaultGroups returns the starter account groups.
func DefaultGroups() []model.AccountGroup {
	return []model.AccountGroup{
		{ID: 1, Code: "G1", Name: "Cash & Banks"},
		{ID: 2, Code: "G2", Name: "Trade Accounts"},
	}
}
