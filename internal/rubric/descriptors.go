package rubric

// Band descriptors condensed from the public IELTS band descriptors.
// Index is the band, 0 through 9.

var taskAchievement = [10]string{
	"Does not attend or answer is totally unrelated to the task.",
	"Answer is completely unrelated to the task or does not attempt it.",
	"Barely responds to the task; position unclear and ideas hardly developed.",
	"Does not adequately address the task; few ideas, largely irrelevant or repetitive.",
	"Responds only minimally or tangentially; position unclear and main ideas hard to identify.",
	"Addresses the task only partially; position expressed but development is not always clear and may lack conclusions.",
	"Addresses all parts of the task though some more fully than others; relevant position with main ideas that may be inadequately developed.",
	"Addresses all parts of the task; clear position throughout with main ideas extended and supported, though some may over-generalise.",
	"Sufficiently addresses all parts of the task; well-developed response with relevant, extended and supported ideas.",
	"Fully addresses all parts of the task with a fully developed position and relevant, fully extended and well supported ideas.",
}

var coherenceCohesion = [10]string{
	"Does not attend or writes a memorised response.",
	"Fails to communicate any message.",
	"Has very little control of organisational features.",
	"Does not organise ideas logically; limited range of cohesive devices, not always indicating a logical relationship.",
	"Presents information and ideas but not arranged coherently; no clear progression and inaccurate or repetitive linking.",
	"Presents information with some organisation but lacks overall progression; cohesive devices inadequate, inaccurate or over-used.",
	"Arranges information coherently with clear overall progression; cohesive devices effective but cohesion within sentences may be faulty or mechanical.",
	"Logically organises information with clear progression throughout; uses a range of cohesive devices appropriately with some under- or over-use.",
	"Sequences information and ideas logically; manages all aspects of cohesion well and uses paragraphing sufficiently and appropriately.",
	"Uses cohesion in such a way that it attracts no attention; skilfully manages paragraphing.",
}

var lexicalWriting = [10]string{
	"Does not attend or writes a memorised response.",
	"Can only use a few isolated words.",
	"Uses an extremely limited range of vocabulary; essentially no control of word formation or spelling.",
	"Uses only a very limited range of words and expressions with very limited control of word formation and spelling.",
	"Uses only basic vocabulary which may be used repetitively; limited control of word formation and spelling causes strain.",
	"Uses a limited range of vocabulary, minimally adequate for the task; noticeable errors in spelling or word formation.",
	"Uses an adequate range of vocabulary; attempts less common vocabulary with some inaccuracy and some spelling errors that do not impede communication.",
	"Uses a sufficient range of vocabulary to allow some flexibility and precision; less common items with awareness of style and collocation.",
	"Uses a wide range of vocabulary fluently and flexibly to convey precise meanings; rare errors in spelling or word formation.",
	"Uses a wide range of vocabulary with very natural and sophisticated control; rare minor errors only as slips.",
}

var grammarWriting = [10]string{
	"Does not attend or writes a memorised response.",
	"Cannot use sentence forms at all.",
	"Cannot use sentence forms except in memorised phrases.",
	"Attempts sentence forms but errors in grammar and punctuation predominate and distort the meaning.",
	"Uses only a very limited range of structures with only rare use of subordinate clauses; errors predominate.",
	"Uses only a limited range of structures; attempts complex sentences but these tend to be less accurate than simple ones; frequent errors.",
	"Uses a mix of simple and complex sentence forms; makes some errors in grammar and punctuation but they rarely reduce communication.",
	"Uses a variety of complex structures; produces frequent error-free sentences with good control of grammar and punctuation.",
	"Uses a wide range of structures; the majority of sentences are error-free with only very occasional errors.",
	"Uses a wide range of structures with full flexibility and accuracy; rare minor errors only as slips.",
}

var fluencyCoherence = [10]string{
	"Does not attend.",
	"No communication possible; no rateable language.",
	"Pauses lengthily before most words; little communication possible.",
	"Speaks with long pauses; limited ability to link simple sentences; gives only simple responses.",
	"Cannot respond without noticeable pauses and may speak slowly with frequent repetition and self-correction.",
	"Usually maintains flow of speech but uses repetition, self-correction or slow speech to keep going; over-uses certain connectives.",
	"Is willing to speak at length though may lose coherence at times; uses a range of connectives, not always appropriately.",
	"Speaks at length without noticeable effort or loss of coherence; some language-related hesitation; uses a range of connectives flexibly.",
	"Speaks fluently with only rare repetition or self-correction; hesitation is content-related; develops topics coherently.",
	"Speaks fluently with only rare repetition; any hesitation is content-related; topics fully and appropriately developed.",
}

var lexicalSpeaking = [10]string{
	"Does not attend.",
	"No communication possible; no rateable language.",
	"Only produces isolated words or memorised utterances.",
	"Uses simple vocabulary to convey personal information; insufficient vocabulary for less familiar topics.",
	"Is able to talk about familiar topics but conveys only basic meaning on unfamiliar topics; frequent errors in word choice.",
	"Manages to talk about familiar and unfamiliar topics but uses vocabulary with limited flexibility; attempts paraphrase with mixed success.",
	"Has a wide enough vocabulary to discuss topics at length and make meaning clear despite inappropriacies; generally paraphrases successfully.",
	"Uses vocabulary resource flexibly to discuss a variety of topics; uses some less common and idiomatic vocabulary; paraphrases effectively.",
	"Uses a wide vocabulary resource readily and flexibly to convey precise meaning; uses less common and idiomatic vocabulary skilfully.",
	"Uses vocabulary with full flexibility and precision in all topics; uses idiomatic language naturally and accurately.",
}

var grammarSpeaking = [10]string{
	"Does not attend.",
	"No communication possible; no rateable language.",
	"Cannot produce basic sentence forms.",
	"Attempts basic sentence forms with limited success or relies on apparently memorised utterances.",
	"Produces basic sentence forms and some correct simple sentences; subordinate structures are rare and errors are frequent.",
	"Produces basic sentence forms with reasonable accuracy; uses a limited range of complex structures that usually contain errors.",
	"Uses a mix of simple and complex structures with limited flexibility; frequent mistakes with complex structures rarely cause comprehension problems.",
	"Uses a range of complex structures with some flexibility; frequently produces error-free sentences though some grammatical mistakes persist.",
	"Uses a wide range of structures flexibly; produces a majority of error-free sentences with only very occasional inappropriacies.",
	"Uses a full range of structures naturally and appropriately; produces consistently accurate structures apart from slips.",
}

var pronunciation = [10]string{
	"Does not attend.",
	"No communication possible; no rateable language.",
	"Speech is often unintelligible.",
	"Shows some of the features of band 2 and some, but not all, of the positive features of band 4.",
	"Uses a limited range of pronunciation features; frequent mispronunciations cause some difficulty for the listener.",
	"Shows all the positive features of band 4 and some, but not all, of the positive features of band 6.",
	"Uses a range of pronunciation features with mixed control; can generally be understood though mispronunciation reduces clarity at times.",
	"Shows all the positive features of band 6 and some, but not all, of the positive features of band 8.",
	"Uses a wide range of pronunciation features; sustains flexible use with only occasional lapses; easy to understand throughout.",
	"Uses a full range of pronunciation features with precision and subtlety; sustains flexible use and is effortless to understand.",
}

func descriptorMap(bands [10]string) map[int]string {
	out := make(map[int]string, len(bands))
	for band, text := range bands {
		out[band] = text
	}
	return out
}
