package service

import "github.com/noah-isme/classroom-sync/internal/models"

// SeedClassrooms are always listed first and never deleted.
func SeedClassrooms() []models.Classroom {
	return []models.Classroom{
		{ID: 1, Name: "SY IT C", Subject: "UCSD", Seed: true},
		{ID: 2, Name: "SY IT C", Subject: "DSA", Seed: true},
	}
}

// TeacherCatalog is the pool a joined classroom's teacher is drawn from.
var TeacherCatalog = []string{
	"Amit Sharma", "Priya Patel", "Rahul Verma", "Neha Singh", "Vikram Joshi",
	"Suman Das", "Rohit Mehta", "Swati Kulkarni", "Anjali Rao", "Pankaj Gupta",
}

// SubjectCatalog is the pool a joined classroom's subject is drawn from.
var SubjectCatalog = []string{
	"Mathematics", "Software Engineering", "Computer Network", "Probability & Statistics",
	"Computer Graphics", "Computer Science", "Data Centric AI", "Data Ethics",
	"Web Technology", "Client Side Scripting",
}

const profileImageBase = "https://i.pravatar.cc/50?u="

func defaultJoinedClasses() []models.JoinedClassRecord {
	return []models.JoinedClassRecord{{
		Code:    "DSA101",
		Name:    "Data Structures and Algorithms",
		Subject: "Data Structures and Algorithms",
		Teacher: "Manisha Gade",
		Profile: profileImageBase + "manisha",
	}}
}

func seedAssignments() []models.Assignment {
	return []models.Assignment{
		{ID: 1, Title: "Assignment 1", DueDate: "March 15, 2025"},
		{ID: 2, Title: "Assignment 2", DueDate: "March 22, 2025"},
	}
}

func seedThreads() []models.DiscussionThread {
	return []models.DiscussionThread{
		{ID: 1, Title: "How does recursion work in JavaScript?", Author: "Amit Kumar", Replies: []string{}},
		{ID: 2, Title: "Best resources to learn Data Structures?", Author: "Priya Sharma", Replies: []string{}},
	}
}

func seedStudents() []models.Student {
	return []models.Student{
		{ID: 1, Name: "Amit", Email: "amit@example.com"},
		{ID: 2, Name: "Rahul", Email: "rahul@example.com"},
		{ID: 3, Name: "Sita", Email: "sita@example.com"},
	}
}

// ChallengeCatalog lists the challenges students can apply for.
func ChallengeCatalog() []models.Challenge {
	return []models.Challenge{
		{ID: 1, Title: "Data Structures & Algorithms Challenge", Category: "DSA", Difficulty: "Hard", Status: "Ongoing", Teacher: "Dr. Manisha Gade", Date: "March 15, 2025", TimeSpan: "March 15 - March 30"},
		{ID: 2, Title: "Full-Stack Web Dev Sprint", Category: "Web Development", Difficulty: "Medium", Status: "Upcoming", Teacher: "Prof. Rohit Mehta", Date: "April 1, 2025", TimeSpan: "April 1 - April 20"},
		{ID: 3, Title: "AI/ML Model Optimization", Category: "AI/ML", Difficulty: "Expert", Status: "Ongoing", Teacher: "Dr. Anjali Rao", Date: "March 10, 2025", TimeSpan: "March 10 - March 25"},
		{ID: 4, Title: "Competitive Coding Marathon", Category: "Competitive Programming", Difficulty: "Hard", Status: "Completed", Teacher: "Prof. Ramesh Sharma", Date: "Jan 10, 2024", TimeSpan: "Jan 10 - Jan 25"},
	}
}
