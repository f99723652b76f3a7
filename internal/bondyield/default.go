package bondyield

// defaultTable is the 3-year deposit rate history (%)
var defaultTable = map[string]float64{
	"2002-02-21": 2.52, "2004-10-29": 3.24, "2006-08-19": 3.69, "2007-03-18": 3.96,
	"2007-05-19": 4.41, "2007-07-21": 4.68, "2007-08-22": 4.95, "2007-09-15": 5.22,
	"2007-12-21": 5.40, "2008-10-09": 5.13, "2008-10-30": 4.77, "2008-11-27": 3.60,
	"2008-12-23": 3.33, "2010-10-20": 3.85, "2010-12-26": 4.15, "2011-02-09": 4.50,
	"2011-04-06": 4.75, "2011-07-07": 5.00, "2012-06-08": 4.65, "2012-07-06": 4.25,
	"2014-11-22": 4.00, "2015-03-01": 3.75, "2015-05-11": 3.50, "2015-06-28": 3.25,
	"2015-08-26": 3.00, "2015-10-24": 2.75,
}

// Default builds the series from the built-in table
func Default() *Series {
	points, err := ParsePoints(defaultTable)
	if err != nil {
		panic(err)
	}
	s, err := New(points)
	if err != nil {
		panic(err)
	}
	return s
}
