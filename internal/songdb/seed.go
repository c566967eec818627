package songdb

// catalog is the reference set: 28 songs across the major albums, with mood
// labels and short lyrics excerpts.
var catalog = []Song{
	// The Dark Side of the Moon (1973)
	{
		Title: "Time", Album: "The Dark Side of the Moon", Year: 1973,
		Lyrics: "Ticking away the moments that make up a dull day\nYou fritter and waste the hours in an offhand way\nKicking around on a piece of ground in your home town\nWaiting for someone or something to show you the way",
		Mood:   "melancholic", DurationSeconds: 413, TrackNumber: 4,
	},
	{
		Title: "Money", Album: "The Dark Side of the Moon", Year: 1973,
		Lyrics: "Money, get away\nGet a good job with more pay and you're okay\nMoney, it's a gas\nGrab that cash with both hands and make a stash",
		Mood:   "energetic", DurationSeconds: 382, TrackNumber: 6,
	},
	{
		Title: "Us and Them", Album: "The Dark Side of the Moon", Year: 1973,
		Lyrics: "Us and them\nAnd after all we're only ordinary men\nMe and you\nGod only knows it's not what we would choose to do",
		Mood:   "melancholic", DurationSeconds: 467, TrackNumber: 7,
	},
	{
		Title: "Brain Damage", Album: "The Dark Side of the Moon", Year: 1973,
		Lyrics: "The lunatic is on the grass\nThe lunatic is on the grass\nRemembering games and daisy chains and laughs\nGot to keep the loonies on the path",
		Mood:   "psychedelic", DurationSeconds: 228, TrackNumber: 9,
	},
	{
		Title: "Eclipse", Album: "The Dark Side of the Moon", Year: 1973,
		Lyrics: "All that you touch and all that you see\nAll that you taste, all you feel\nAnd all that you love and all that you hate\nAll you distrust, all you save",
		Mood:   "progressive", DurationSeconds: 123, TrackNumber: 10,
	},
	// The Wall (1979)
	{
		Title: "Comfortably Numb", Album: "The Wall", Year: 1979,
		Lyrics: "Hello, is there anybody in there?\nJust nod if you can hear me\nIs there anyone home?\nCome on now, I hear you're feeling down",
		Mood:   "melancholic", DurationSeconds: 382, TrackNumber: 6,
	},
	{
		Title: "Another Brick in the Wall (Part 2)", Album: "The Wall", Year: 1979,
		Lyrics: "We don't need no education\nWe don't need no thought control\nNo dark sarcasm in the classroom\nTeachers leave them kids alone",
		Mood:   "energetic", DurationSeconds: 238, TrackNumber: 3,
	},
	{
		Title: "Hey You", Album: "The Wall", Year: 1979,
		Lyrics: "Hey you, out there in the cold\nGetting lonely, getting old\nCan you feel me?\nHey you, standing in the aisles",
		Mood:   "melancholic", DurationSeconds: 284, TrackNumber: 1,
	},
	{
		Title: "Run Like Hell", Album: "The Wall", Year: 1979,
		Lyrics: "Run, run, run, run, run, run, run, run\nYou better make your face up in\nYour favorite disguise\nWith your button down lips and your roller blind eyes",
		Mood:   "energetic", DurationSeconds: 258, TrackNumber: 3,
	},
	{
		Title: "The Trial", Album: "The Wall", Year: 1979,
		Lyrics: "Good morning, the worm, your honor\nThe crown will plainly show\nThe prisoner who now stands before you\nWas caught red-handed showing feelings",
		Mood:   "dark", DurationSeconds: 313, TrackNumber: 5,
	},
	// Wish You Were Here (1975)
	{
		Title: "Shine On You Crazy Diamond (Parts I-V)", Album: "Wish You Were Here", Year: 1975,
		Lyrics: "Remember when you were young, you shone like the sun\nShine on you crazy diamond\nNow there's a look in your eyes, like black holes in the sky",
		Mood:   "progressive", DurationSeconds: 810, TrackNumber: 1,
	},
	{
		Title: "Wish You Were Here", Album: "Wish You Were Here", Year: 1975,
		Lyrics: "So, so you think you can tell\nHeaven from hell, blue skies from pain\nCan you tell a green field from a cold steel rail?\nA smile from a veil? Do you think you can tell?",
		Mood:   "melancholic", DurationSeconds: 334, TrackNumber: 5,
	},
	{
		Title: "Welcome to the Machine", Album: "Wish You Were Here", Year: 1975,
		Lyrics: "Welcome my son, welcome to the machine\nWhere have you been? It's alright we know where you've been\nYou've been in the pipeline, filling in time",
		Mood:   "dark", DurationSeconds: 467, TrackNumber: 2,
	},
	// Animals (1977)
	{
		Title: "Dogs", Album: "Animals", Year: 1977,
		Lyrics: "You gotta be crazy, you gotta have a real need\nYou gotta sleep on your toes, and when you're on the street\nYou gotta be able to pick out the easy meat with your eyes closed",
		Mood:   "progressive", DurationSeconds: 1025, TrackNumber: 2,
	},
	{
		Title: "Pigs (Three Different Ones)", Album: "Animals", Year: 1977,
		Lyrics: "Big man, pig man, ha ha, charade you are\nYou well heeled big wheel, ha ha, charade you are\nAnd when your hand is on your heart\nYou're nearly a good laugh, almost a joker",
		Mood:   "dark", DurationSeconds: 671, TrackNumber: 3,
	},
	{
		Title: "Sheep", Album: "Animals", Year: 1977,
		Lyrics: "Harmlessly passing your time in the grassland away\nOnly dimly aware of a certain unease in the air\nYou better watch out, there may be dogs about",
		Mood:   "energetic", DurationSeconds: 625, TrackNumber: 4,
	},
	// Meddle (1971)
	{
		Title: "Echoes", Album: "Meddle", Year: 1971,
		Lyrics: "Overhead the albatross hangs motionless upon the air\nAnd deep beneath the rolling waves in labyrinths of coral caves\nThe echo of a distant time comes willowing across the sand",
		Mood:   "progressive", DurationSeconds: 1435, TrackNumber: 6,
	},
	{
		Title: "One of These Days", Album: "Meddle", Year: 1971,
		Lyrics: "One of these days I'm going to cut you into little pieces",
		Mood:   "psychedelic", DurationSeconds: 349, TrackNumber: 1,
	},
	// The Piper at the Gates of Dawn (1967)
	{
		Title: "Astronomy Domine", Album: "The Piper at the Gates of Dawn", Year: 1967,
		Lyrics: "Lime and limpid green, a second scene\nA fight between the blue you once knew\nFloating down, the sound resounds\nAround the icy waters underground",
		Mood:   "psychedelic", DurationSeconds: 252, TrackNumber: 1,
	},
	{
		Title: "Interstellar Overdrive", Album: "The Piper at the Gates of Dawn", Year: 1967,
		Lyrics: "[Instrumental improvisation with spoken word segments]",
		Mood:   "psychedelic", DurationSeconds: 585, TrackNumber: 7,
	},
	{
		Title: "Mother", Album: "The Wall", Year: 1979,
		Lyrics: "Mother do you think they'll drop the bomb?\nMother do you think they'll like this song?\nMother do you think they'll try to break my balls?",
		Mood:   "melancholic", DurationSeconds: 332, TrackNumber: 4,
	},
	{
		Title: "Young Lust", Album: "The Wall", Year: 1979,
		Lyrics: "I am just a new boy, a stranger in this town\nWhere are all the good times? Who's gonna show this stranger around?",
		Mood:   "energetic", DurationSeconds: 195, TrackNumber: 9,
	},
	{
		Title: "Breathe", Album: "The Dark Side of the Moon", Year: 1973,
		Lyrics: "Breathe, breathe in the air\nDon't be afraid to care\nLeave but don't leave me\nLook around and choose your own ground",
		Mood:   "melancholic", DurationSeconds: 163, TrackNumber: 2,
	},
	{
		Title: "The Great Gig in the Sky", Album: "The Dark Side of the Moon", Year: 1973,
		Lyrics: "[Primarily vocal improvisation by Clare Torry]",
		Mood:   "progressive", DurationSeconds: 285, TrackNumber: 5,
	},
	{
		Title: "Have a Cigar", Album: "Wish You Were Here", Year: 1975,
		Lyrics: "Come in here, dear boy, have a cigar\nYou're gonna go far, you're gonna fly high\nYou're never gonna die, you're gonna make it if you try",
		Mood:   "energetic", DurationSeconds: 305, TrackNumber: 3,
	},
	{
		Title: "Shine On You Crazy Diamond (Parts VI-IX)", Album: "Wish You Were Here", Year: 1975,
		Lyrics: "Nobody knows where you are, how near or how far\nShine on you crazy diamond\nPile on many more layers and I'll be joining you there",
		Mood:   "progressive", DurationSeconds: 746, TrackNumber: 6,
	},
	{
		Title: "Set the Controls for the Heart of the Sun", Album: "A Saucerful of Secrets", Year: 1968,
		Lyrics: "Little by little the night turns around\nCounting the leaves which tremble at dawn\nLotuses lean on each other in yearning\nUnder the eaves the swallow is resting",
		Mood:   "psychedelic", DurationSeconds: 327, TrackNumber: 3,
	},
	{
		Title: "Careful with That Axe, Eugene", Album: "Ummagumma", Year: 1969,
		Lyrics: "[Mostly instrumental with screaming vocals]",
		Mood:   "dark", DurationSeconds: 531, TrackNumber: 2,
	},
}
