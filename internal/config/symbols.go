package config

// Nifty50 is the default symbol universe, in fetch order.
var Nifty50 = []string{
	"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK",
	"SBIN", "BHARTIARTL", "KOTAKBANK", "ITC", "AXISBANK",
	"LT", "BAJFINANCE", "HDFC", "MARUTI", "HINDUNILVR",
	"ASIANPAINT", "HCLTECH", "WIPRO", "TATAMOTORS", "SUNPHARMA",
	"TITAN", "ULTRACEMCO", "NESTLEIND", "ONGC", "POWERGRID",
	"NTPC", "M&M", "BAJAJFINSV", "TATASTEEL", "INDUSINDBK",
	"TECHM", "JSWSTEEL", "ADANIENT", "GRASIM", "DIVISLAB",
	"CIPLA", "DRREDDY", "COALINDIA", "BRITANNIA", "EICHERMOT",
	"HINDALCO", "ADANIPORTS", "SHREECEM", "UPL", "VEDL",
	"BPCL", "HEROMOTOCO", "TATACONSUM", "SBILIFE", "BAJAJ-AUTO",
}
