package smoke

// SampleTexts is the built-in corpus: State of the Union passages with
// enough topical spread to separate answerable queries from the
// unanswerable control.
var SampleTexts = []string{
	"The state of our Union is strong because our people are strong. Over the last year, we've made progress. Created jobs. Reduced deficit. Lowered prescription drug costs.",
	"We are the only country that has emerged from every crisis stronger than when we entered it. That is what we are doing again.",
	"We have more to do, but here is the good news: Our country is stronger today than we were a year ago.",
	"As I stand here tonight, we have created a record 12 million new jobs – more jobs created in two years than any president has ever created in four years.",
	"For decades, the middle class was hollowed out. Too many good-paying manufacturing jobs moved overseas. Factories closed down.",
}

// TestQueries are the questions run against the corpus. The last one is
// deliberately off-topic and should trigger the prompt's fallback answer.
var TestQueries = []string{
	"How many new jobs were created according to the speech?",
	"What happened to manufacturing jobs and the middle class?",
	"What is the current state of the Union?",
	"What about education?",
}
